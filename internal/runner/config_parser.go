package runner

import (
	"encoding/json"
	"fmt"
)

// parseConfig decodes a node's free-form config map into a typed config
// record via a JSON marshal/unmarshal round trip — the simplest correct way
// to turn map[string]any into a struct, with defaults expressed as Go zero
// values plus explicit fallback logic in each runner.
func parseConfig[T any](config map[string]any) (*T, error) {
	var result T
	if config == nil {
		return &result, nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &result, nil
}

func stringOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func intOr(m map[string]any, key string, fallback int) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return fallback
}

func boolOr(m map[string]any, key string, fallback bool) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

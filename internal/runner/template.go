package runner

import (
	"fmt"
	"regexp"

	"github.com/itchyny/gojq"
)

var templateVarPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// substituteVariables replaces every {{path}} placeholder in template with
// the value looked up at that dotted path inside vars, rendered with %v.
// Unresolvable paths are left as empty string rather than erroring. The
// lookup goes through gojq so dotted and indexed paths (`a.b[0].c`) are
// handled by a real query engine instead of a hand-rolled walker.
func substituteVariables(template string, vars map[string]any) string {
	return templateVarPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := templateVarPattern.FindStringSubmatch(match)[1]
		val, ok := lookupPath(path, vars)
		if !ok {
			return ""
		}
		return fmt.Sprintf("%v", val)
	})
}

// lookupPath resolves a dotted variable path (e.g. "student.gradeLevel")
// against vars using a compiled gojq query.
func lookupPath(path string, vars map[string]any) (any, bool) {
	query, err := gojq.Parse("." + path)
	if err != nil {
		return nil, false
	}
	iter := query.Run(vars)
	v, ok := iter.Next()
	if !ok {
		return nil, false
	}
	if err, isErr := v.(error); isErr {
		_ = err
		return nil, false
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

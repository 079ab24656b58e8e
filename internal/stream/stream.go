// Package stream implements the per-execution typed event stream: an
// Observer adapter that turns scheduler callbacks into ordered Event
// values, a Sink interface decoupling delivery from encoding, and an SSE
// Sink over gin.
package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/brightpath/orchestrator/internal/domain"
	"github.com/brightpath/orchestrator/internal/exec"
)

// EventType is the closed tag set of stream events.
type EventType string

const (
	EventNodeStart     EventType = "node-start"
	EventNodeComplete  EventType = "node-complete"
	EventNodeError     EventType = "node-error"
	EventStreamToken   EventType = "stream-token"
	EventProgress      EventType = "progress"
	EventComplete      EventType = "complete"
	EventError         EventType = "error"
)

// Event is one frame: a type tag, an implicit order number, and a small
// JSON-serialisable payload. complete/error terminate the stream — no
// event follows either.
type Event struct {
	Type    EventType
	Order   int
	Payload any
}

// NodeStartPayload is EventNodeStart's data.
type NodeStartPayload struct {
	NodeID   string `json:"nodeId"`
	NodeType string `json:"nodeType"`
	Label    string `json:"label,omitempty"`
}

// NodeCompletePayload is EventNodeComplete's data.
type NodeCompletePayload struct {
	NodeID string         `json:"nodeId"`
	Output map[string]any `json:"output"`
}

// NodeErrorPayload is EventNodeError's data.
type NodeErrorPayload struct {
	NodeID  string `json:"nodeId"`
	Message string `json:"message"`
}

// StreamTokenPayload is EventStreamToken's data.
type StreamTokenPayload struct {
	NodeID  string `json:"nodeId"`
	Content string `json:"content"`
}

// ProgressPayload is EventProgress's data.
type ProgressPayload struct {
	Progress       float64 `json:"progress"`
	TotalNodes     int     `json:"totalNodes"`
	CompletedNodes int     `json:"completedNodes"`
}

// CompletePayload is EventComplete's data.
type CompletePayload struct {
	Status string `json:"status"`
}

// ErrorPayload is EventError's data.
type ErrorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// Sink is the engine's only talk-to-the-outside-world interface for
// streaming: the SSE encoding is one adaptor, a test sink that records
// events is another.
type Sink interface {
	// Send delivers one event. Implementations must treat a send after
	// Close as a no-op, never a failure.
	Send(ev Event) error
	// Close releases the sink; idempotent.
	Close()
}

// Manager is the Observer adapter: it assigns order numbers, forwards
// every scheduler callback to a Sink as a typed Event, and stops forwarding
// once the stream has been aborted (client disconnect) or terminated
// (complete/error already sent).
type Manager struct {
	mu       sync.Mutex
	sink     Sink
	order    int
	aborted  bool
	done     bool
	cancelFn func()
}

var _ exec.Observer = (*Manager)(nil)

// NewManager builds a Manager over sink. cancelFn is invoked when Abort is
// called, wired to the scheduler's Cancel. Pass nil and BindCancel later
// when the scheduler doesn't exist yet — the manager must usually be
// constructed first, since it is the observer the scheduler is built
// around.
func NewManager(sink Sink, cancelFn func()) *Manager {
	return &Manager{sink: sink, cancelFn: cancelFn}
}

// BindCancel wires (or replaces) the Abort cancel hook after construction.
// If the client already disconnected before the hook arrived, fn fires
// immediately so the scheduler never runs unobserved.
func (m *Manager) BindCancel(fn func()) {
	m.mu.Lock()
	m.cancelFn = fn
	aborted := m.aborted
	m.mu.Unlock()
	if aborted && fn != nil {
		fn()
	}
}

// Abort marks the stream aborted (client disconnected) and cancels the
// driving scheduler. Idempotent.
func (m *Manager) Abort() {
	m.mu.Lock()
	already := m.aborted
	m.aborted = true
	m.mu.Unlock()
	if !already && m.cancelFn != nil {
		m.cancelFn()
	}
}

func (m *Manager) emit(t EventType, payload any) {
	m.mu.Lock()
	if m.aborted || m.done {
		m.mu.Unlock()
		return
	}
	m.order++
	ev := Event{Type: t, Order: m.order, Payload: payload}
	if t == EventComplete || t == EventError {
		m.done = true
	}
	sink := m.sink
	m.mu.Unlock()

	_ = sink.Send(ev)
	if ev.Type == EventComplete || ev.Type == EventError {
		sink.Close()
	}
}

func (m *Manager) OnNodeStart(nodeID string, node domain.Node) {
	m.emit(EventNodeStart, NodeStartPayload{NodeID: nodeID, NodeType: string(node.Type), Label: node.Label})
}

func (m *Manager) OnNodeComplete(nodeID string, output map[string]any) {
	m.emit(EventNodeComplete, NodeCompletePayload{NodeID: nodeID, Output: output})
}

func (m *Manager) OnNodeError(nodeID string, err error) {
	m.emit(EventNodeError, NodeErrorPayload{NodeID: nodeID, Message: err.Error()})
}

func (m *Manager) OnProgress(completed, total int) {
	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total)
	}
	m.emit(EventProgress, ProgressPayload{Progress: progress, TotalNodes: total, CompletedNodes: completed})
}

func (m *Manager) OnStreamToken(nodeID, content string) {
	m.emit(EventStreamToken, StreamTokenPayload{NodeID: nodeID, Content: content})
}

func (m *Manager) OnExecutionComplete(we *domain.WorkflowExecution) {
	if we.Status == domain.StatusFailed {
		kind, msg := "", ""
		if we.Error != nil {
			kind, msg = we.Error.Kind, we.Error.Message
		}
		m.emit(EventError, ErrorPayload{Message: msg, Kind: kind})
		return
	}
	if we.Status == domain.StatusAwaitingInput || we.Status == domain.StatusPaused {
		// Neither terminates the stream; the caller keeps the connection
		// open and calls resume() later.
		return
	}
	m.emit(EventComplete, CompletePayload{Status: string(we.Status)})
}

// RecordingSink is an in-memory test Sink that simply appends events.
type RecordingSink struct {
	mu     sync.Mutex
	Events []Event
	closed bool
}

func NewRecordingSink() *RecordingSink { return &RecordingSink{} }

func (r *RecordingSink) Send(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.Events = append(r.Events, ev)
	return nil
}

func (r *RecordingSink) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *RecordingSink) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.Events))
	copy(out, r.Events)
	return out
}

// SSEFrame renders ev as a single "event: <name>\ndata: <json>\n\n" wire
// frame.
func SSEFrame(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+32)
	out = append(out, "event: "...)
	out = append(out, ev.Type...)
	out = append(out, '\n')
	out = append(out, "data: "...)
	out = append(out, data...)
	out = append(out, '\n', '\n')
	return out, nil
}

// heartbeatComment is an SSE comment line used to keep intermediary
// proxies from timing out an idle connection; written directly by the
// gin sink on its own ticker, not through Manager.emit (it isn't a
// stream event and must never consume an order number).
const heartbeatComment = ": heartbeat\n\n"

// HeartbeatInterval is how often a GinSink writes heartbeatComment while
// idle, overridable via internal/config.
var HeartbeatInterval = 15 * time.Second

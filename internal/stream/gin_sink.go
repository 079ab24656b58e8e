package stream

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// GinSink writes frames directly onto a gin.Context's underlying
// ResponseWriter and flushes after every event. Events are pushed (Send is
// called from the scheduler's goroutine) rather than pulled from a channel
// inside gin's Stream loop, so the handler only needs to block on a
// completion signal (see Done()) while Send writes frames as they occur.
type GinSink struct {
	mu     sync.Mutex
	ctx    *gin.Context
	closed bool
	done   chan struct{}
}

// NewGinSink wraps a gin.Context for one execution's response and starts
// the idle-connection heartbeat, stopped by Close.
func NewGinSink(ctx *gin.Context) *GinSink {
	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache, no-transform")
	ctx.Header("Connection", "keep-alive")
	g := &GinSink{ctx: ctx, done: make(chan struct{})}
	go g.heartbeat()
	return g
}

// heartbeat writes an SSE comment every HeartbeatInterval so intermediary
// proxies don't time out an idle connection between events.
func (g *GinSink) heartbeat() {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			g.mu.Lock()
			if !g.closed {
				if _, err := g.ctx.Writer.Write([]byte(heartbeatComment)); err == nil {
					g.ctx.Writer.Flush()
				}
			}
			g.mu.Unlock()
		}
	}
}

func (g *GinSink) Send(ev Event) error {
	frame, err := SSEFrame(ev)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	if _, err := g.ctx.Writer.Write(frame); err != nil {
		return err
	}
	g.ctx.Writer.Flush()
	return nil
}

func (g *GinSink) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	close(g.done)
}

// Done returns a channel closed once Close has run, for callers that need
// to block until the stream is finished without polling.
func (g *GinSink) Done() <-chan struct{} { return g.done }

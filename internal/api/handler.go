package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	domainerrors "github.com/brightpath/orchestrator/internal/domain/errors"
	"github.com/brightpath/orchestrator/internal/exec"
	"github.com/brightpath/orchestrator/internal/ratelimit"
	"github.com/brightpath/orchestrator/internal/storage"
	"github.com/brightpath/orchestrator/internal/stream"
	"github.com/brightpath/orchestrator/pkg/orchestrator"
)

// Handler holds the execute endpoint's collaborators.
type Handler struct {
	engine   *orchestrator.Engine
	gate     *ratelimit.Gate
	store    storage.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandler builds a Handler over the given engine, rate-limit gate and
// persistence façade. store may be nil; executions then run unrecorded.
func NewHandler(engine *orchestrator.Engine, gate *ratelimit.Gate, store storage.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		gate:     gate,
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register mounts the endpoints onto router.
func (h *Handler) Register(router gin.IRouter) {
	router.POST("/api/workflows/execute", h.Execute)
	router.GET("/api/usage/:teacherId", h.Usage)
}

// Usage returns a point-in-time rate-limit snapshot for a teacher without
// consuming any quota.
func (h *Handler) Usage(c *gin.Context) {
	teacherID := c.Param("teacherId")
	stats := h.gate.GetUsageStats(c.Request.Context(), teacherID)
	c.JSON(http.StatusOK, UsageResponse{
		TeacherID: teacherID,
		Daily:     quotaBody(stats.Daily),
		Burst:     quotaBody(stats.Burst),
	})
}

func quotaBody(q ratelimit.Quota) QuotaBody {
	return QuotaBody{
		Limit:     q.Limit,
		Remaining: q.Remaining,
		ResetAt:   q.ResetAt,
	}
}

// Execute binds and validates the request, admits it through the
// rate-limit gate, then streams the run as Server-Sent Events.
func (h *Handler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondValidationError(c, err)
		return
	}

	wf := req.Workflow.ToDomain()
	g, issues := orchestrator.ValidateAndBuild(wf)
	if len(issues) > 0 {
		out := make([]ValidationIssue, 0, len(issues))
		for _, iss := range issues {
			out = append(out, ValidationIssue{Path: iss.Path, Message: iss.Message})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": string(domainerrors.KindInvalidWorkflow), "issues": out})
		return
	}

	student := req.Student.ToDomain()

	var decision ratelimit.Decision
	if student.TeacherID != "" {
		decision = h.gate.CheckExecutionLimit(c.Request.Context(), student.TeacherID, req.Options.ClassroomID)
	} else {
		decision = h.gate.CheckIPLimit(c.Request.Context(), c.ClientIP())
	}
	if !decision.Allowed {
		h.respondRateLimited(c, decision)
		return
	}

	sink := stream.NewGinSink(c)
	manager := stream.NewManager(sink, nil)

	var observer orchestrator.Subscriber = manager
	if h.store != nil {
		observer = exec.NewCompositeObserver(manager, &sessionRecorder{store: h.store, logger: h.logger})
	}
	ex := h.engine.NewExecution(g, &student, observer)
	manager.BindCancel(ex.Cancel)
	c.Writer.WriteHeader(http.StatusOK)

	// c.Request.Context() is cancelled on client disconnect by net/http.
	// Abort stops event delivery and cancels the scheduler at its next step
	// boundary.
	done := make(chan struct{})
	go func() {
		select {
		case <-c.Request.Context().Done():
			h.logger.Info().
				Str("kind", string(domainerrors.KindClientDisconnected)).
				Msg("client disconnected, cancelling execution")
			manager.Abort()
		case <-done:
		}
	}()

	ex.Run(c.Request.Context())
	close(done)
	sink.Close()
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		h.respondValidationError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": string(domainerrors.KindInvalidWorkflow), "issues": []ValidationIssue{{Path: "body", Message: "invalid JSON: " + err.Error()}}})
}

func (h *Handler) respondValidationError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(domainerrors.KindInvalidWorkflow), "issues": []ValidationIssue{{Path: "body", Message: err.Error()}}})
		return
	}
	issues := make([]ValidationIssue, 0, len(ve))
	for _, fe := range ve {
		path := strings.ToLower(strings.ReplaceAll(fe.Namespace(), "ExecuteRequest.", ""))
		issues = append(issues, ValidationIssue{Path: path, Message: validationMessage(fe)})
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": string(domainerrors.KindInvalidWorkflow), "issues": issues})
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func (h *Handler) respondRateLimited(c *gin.Context, decision ratelimit.Decision) {
	retryAfter := int(time.Until(decision.ResetAt).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, RateLimitErrorBody{
		Error:      string(domainerrors.KindRateLimited),
		Message:    fmt.Sprintf("%s exceeded", decision.LimitType),
		LimitType:  string(decision.LimitType),
		Limit:      decision.Limit,
		Remaining:  decision.Remaining,
		RetryAfter: retryAfter,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/constants"
	"github.com/yukikurage/taskboard-web/internal/dto"
	apierrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/gateway"
	"github.com/yukikurage/taskboard-web/internal/logger"
	"github.com/yukikurage/taskboard-web/internal/middleware"
	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/reconciler"
	"github.com/yukikurage/taskboard-web/internal/services"
	"github.com/yukikurage/taskboard-web/internal/validation"
)

// BoardHandler serves the kanban board of the current browser session.
type BoardHandler struct {
	registry    *services.BoardRegistry
	gateway     *gateway.Client
	suggestions *services.SuggestionService
	logger      *zap.Logger
}

// NewBoardHandler creates a new BoardHandler. suggestions may be nil.
func NewBoardHandler(registry *services.BoardRegistry, gw *gateway.Client, suggestions *services.SuggestionService, log *zap.Logger) *BoardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BoardHandler{
		registry:    registry,
		gateway:     gw,
		suggestions: suggestions,
		logger:      log,
	}
}

// GetBoard renders the board, loading it from the API on first access.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	b, rec := h.open(c)
	h.ensureLoaded(c, b, rec)
	c.JSON(http.StatusOK, dto.ToBoardResponse(b.Store, b.Inbox))
}

// Refresh reloads the board from the API.
func (h *BoardHandler) Refresh(c *gin.Context) {
	b, rec := h.open(c)
	out := rec.Load(c.Request.Context())
	if out.OK() {
		b.MarkLoaded()
	}
	h.respond(c, b, out, http.StatusOK)
}

// CreateTask adds a task to the end of the board.
func (h *BoardHandler) CreateTask(c *gin.Context) {
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, rec := h.open(c)
	if out, ok := h.ensureLoaded(c, b, rec); !ok {
		h.respond(c, b, out, http.StatusOK)
		return
	}
	out := rec.Create(c.Request.Context(), req.Draft())
	h.respond(c, b, out, http.StatusCreated)
}

// UpdateTask replaces the editable fields of a task.
func (h *BoardHandler) UpdateTask(c *gin.Context) {
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	b, rec := h.open(c)
	if out, ok := h.ensureLoaded(c, b, rec); !ok {
		h.respond(c, b, out, http.StatusOK)
		return
	}
	task := models.Task{ID: id, Title: req.Title, Description: req.Description, Status: req.Status}
	if current, ok := b.Store.Get(id); ok {
		task.AssignedTo = current.AssignedTo
		task.CreatedAt = current.CreatedAt
		if task.Status == "" {
			task.Status = current.Status
		}
	}
	out := rec.Update(c.Request.Context(), id, task)
	h.respond(c, b, out, http.StatusOK)
}

// DeleteTask removes a task.
func (h *BoardHandler) DeleteTask(c *gin.Context) {
	b, rec := h.open(c)
	if out, ok := h.ensureLoaded(c, b, rec); !ok {
		h.respond(c, b, out, http.StatusOK)
		return
	}
	out := rec.Delete(c.Request.Context(), c.Param("id"))
	h.respond(c, b, out, http.StatusOK)
}

// MoveTask applies a drag-end event.
func (h *BoardHandler) MoveTask(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, rec := h.open(c)
	if out, ok := h.ensureLoaded(c, b, rec); !ok {
		h.respond(c, b, out, http.StatusOK)
		return
	}
	out := rec.Move(c.Request.Context(), req.Event())
	h.respond(c, b, out, http.StatusOK)
}

// SuggestTasks extracts task drafts from free text. Nothing is added to the board.
func (h *BoardHandler) SuggestTasks(c *gin.Context) {
	if h.suggestions == nil {
		apierrors.ServiceUnavailable(c, "AI service is not configured")
		return
	}

	var req dto.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	drafts, err := h.suggestions.Suggest(c.Request.Context(), req.Text)
	if err != nil {
		logger.WithRequestID(c.Request.Context(), h.logger).Warn("suggest tasks", zap.Error(err))
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuggestResponse{Drafts: drafts})
}

// open returns the session's board and a reconciler bound to the session's token.
func (h *BoardHandler) open(c *gin.Context) (*services.Board, *reconciler.Reconciler) {
	store := sessions.Default(c)
	id, _ := store.Get(constants.SessionKeyBoardID).(string)

	b := h.registry.Acquire(id)
	if b.ID != id {
		store.Set(constants.SessionKeyBoardID, b.ID)
		if err := store.Save(); err != nil {
			logger.WithRequestID(c.Request.Context(), h.logger).Error("save board id", zap.Error(err))
		}
	}

	sess := middleware.GetSession(c)
	log := logger.WithRequestID(c.Request.Context(), h.logger).With(zap.String("board_id", b.ID))
	rec := reconciler.New(b.Store, h.gateway.WithToken(sess.Token()), sess, b.Inbox, log, reconciler.Options{})
	return b, rec
}

// ensureLoaded fetches the board when this process has not loaded it yet, so
// mutations after a restart or an idle sweep see the backend's tasks.
func (h *BoardHandler) ensureLoaded(c *gin.Context, b *services.Board, rec *reconciler.Reconciler) (reconciler.Outcome, bool) {
	if b.Loaded() {
		return reconciler.Outcome{}, true
	}
	out := rec.Load(c.Request.Context())
	if !out.OK() {
		return out, false
	}
	b.MarkLoaded()
	return out, true
}

func (h *BoardHandler) respond(c *gin.Context, b *services.Board, out reconciler.Outcome, okStatus int) {
	resp := dto.OutcomeResponse{
		Op:      out.Op,
		TaskID:  out.TaskID,
		Phase:   out.Phase.String(),
		Ignored: out.Ignored,
		Task:    out.Task,
	}
	status := okStatus
	if out.Ignored {
		status = http.StatusOK
	}
	if out.Err != nil {
		kind := out.Kind()
		status = apierrors.StatusFor(kind)
		resp.Error = &dto.ErrorBody{Code: string(kind), Message: apierrors.MessageOf(out.Err)}
	}
	resp.Board = dto.ToBoardResponse(b.Store, b.Inbox)
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	if details := validation.Details(err); len(details) > 0 {
		apierrors.BadRequestWithDetails(c, "Invalid request body", details)
		return
	}
	apierrors.BadRequest(c, "Invalid request body")
}

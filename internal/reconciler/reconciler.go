// Package reconciler runs every board mutation through the optimistic update
// protocol: apply locally, ask the remote API, then confirm or roll back. All
// failures stop here and become an Outcome plus one Notice.
package reconciler

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/board"
	"github.com/yukikurage/taskboard-web/internal/constants"
	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

// TaskGateway is the remote side of the board.
type TaskGateway interface {
	FetchAll(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, draft models.Draft) (models.Task, error)
	Update(ctx context.Context, id string, task models.Task) (models.Task, error)
	Delete(ctx context.Context, id string) error
}

// Session gates mutating actions.
type Session interface {
	Authenticated() bool
}

type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpMove   Op = "move"
)

// Outcome reports how one action ended.
type Outcome struct {
	Op      Op
	TaskID  string
	Phase   Phase
	Ignored bool
	Task    *models.Task
	Err     error
}

// OK reports whether the action succeeded or was ignored.
func (o Outcome) OK() bool { return o.Err == nil }

// Kind returns the error kind of a failed outcome, or "" on success.
func (o Outcome) Kind() apperrors.Kind { return apperrors.KindOf(o.Err) }

var (
	errTitleRequired = apperrors.New(apperrors.KindValidation, "Title is required")
	errBadStatus     = apperrors.New(apperrors.KindValidation, "Status must be To Do, In Progress or Done")
	errLoginRequired = apperrors.New(apperrors.KindUnauthorized, "login required")
)

type Options struct {
	// NewID returns provisional ids for optimistic creates.
	NewID func() string
}

// Reconciler coordinates one board's store with the remote API. It holds no
// lock of its own; concurrent mutations race and the last response wins.
type Reconciler struct {
	store    *board.Store
	gateway  TaskGateway
	session  Session
	notifier Notifier
	logger   *zap.Logger
	newID    func() string
}

func New(store *board.Store, gateway TaskGateway, session Session, notifier Notifier, logger *zap.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return constants.ProvisionalIDPrefix + uuid.NewString() }
	}
	return &Reconciler{
		store:    store,
		gateway:  gateway,
		session:  session,
		notifier: notifier,
		logger:   logger,
		newID:    newID,
	}
}

// Store returns the board the reconciler mutates.
func (r *Reconciler) Store() *board.Store {
	return r.store
}

// Load replaces the board with the remote task list. On failure the board is left as is.
func (r *Reconciler) Load(ctx context.Context) Outcome {
	out := Outcome{Op: OpLoad}

	tasks, err := r.gateway.FetchAll(ctx)
	if err == nil {
		err = r.store.ReplaceAll(tasks)
	}
	if err != nil {
		out.Err = err
		if apperrors.IsKind(err, apperrors.KindInvalidPayload) {
			r.logger.Error("invalid task payload", zap.Error(err))
			r.fail("Invalid task data received from server!")
		} else {
			r.logger.Warn("fetch tasks failed", zap.Error(err))
			r.fail("Failed to fetch tasks from server!")
		}
		return out
	}

	r.logger.Debug("board loaded", zap.Int("tasks", len(tasks)))
	return out
}

// Create inserts the draft under a provisional id and swaps it for the
// backend record once the create is confirmed.
func (r *Reconciler) Create(ctx context.Context, draft models.Draft) Outcome {
	out := Outcome{Op: OpCreate}
	if !r.authorized(&out, "Please log in to add tasks!") {
		return out
	}

	draft = draft.Normalize()
	if err := checkDraft(draft); err != nil {
		return r.reject(out, err)
	}

	provisional := draft.Task(r.newID())
	out.TaskID = provisional.ID
	m := newMutation(r.store)
	if err := m.apply(func(s *board.Store) error { return s.Insert(provisional) }); err != nil {
		return r.reject(out, err)
	}

	created, err := r.gateway.Create(ctx, draft)
	if err != nil {
		return r.rollback(out, m, err, "Error adding task!")
	}
	if err := r.store.Promote(provisional.ID, created); err != nil {
		// A reload replaced the board while the create was in flight.
		r.logger.Warn("provisional task vanished", zap.String("provisional_id", provisional.ID), zap.Error(err))
		if _, ok := r.store.Get(created.ID); !ok {
			if err := r.store.Insert(created); err != nil {
				r.logger.Warn("insert created task", zap.String("task_id", created.ID), zap.Error(err))
			}
		}
	}
	return r.confirm(out, m, created, "Task added successfully!")
}

// Update replaces the whole record. The stored record becomes the one the
// backend returns.
func (r *Reconciler) Update(ctx context.Context, id string, task models.Task) Outcome {
	out := Outcome{Op: OpUpdate, TaskID: id}
	if !r.authorized(&out, "Please log in to edit tasks!") {
		return out
	}

	task.ID = id
	task.Title = strings.TrimSpace(task.Title)
	if err := checkDraft(models.Draft{Title: task.Title, Status: task.Status}); err != nil {
		return r.reject(out, err)
	}

	m := newMutation(r.store)
	if err := m.apply(func(s *board.Store) error { return s.Update(id, task) }); err != nil {
		return r.reject(out, err)
	}

	updated, err := r.gateway.Update(ctx, id, task)
	if err != nil {
		return r.rollback(out, m, err, "Error updating task!")
	}
	if err := r.store.Update(id, updated); err != nil {
		r.logger.Warn("updated task no longer on board", zap.String("task_id", id), zap.Error(err))
	}
	return r.confirm(out, m, updated, "Task updated successfully!")
}

// Delete removes the task locally, then remotely.
func (r *Reconciler) Delete(ctx context.Context, id string) Outcome {
	out := Outcome{Op: OpDelete, TaskID: id}
	if !r.authorized(&out, "Please log in to delete tasks!") {
		return out
	}

	m := newMutation(r.store)
	err := m.apply(func(s *board.Store) error {
		if !s.Remove(id) {
			return board.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return r.reject(out, err)
	}

	if err := r.gateway.Delete(ctx, id); err != nil {
		return r.rollback(out, m, err, "Error deleting task!")
	}
	return r.confirm(out, m, models.Task{}, "Task deleted successfully!")
}

func (r *Reconciler) authorized(out *Outcome, message string) bool {
	if r.session != nil && r.session.Authenticated() {
		return true
	}
	out.Err = errLoginRequired
	out.Phase = PhaseIdle
	r.fail(message)
	return false
}

// reject ends an action that never reached the optimistic phase.
func (r *Reconciler) reject(out Outcome, err error) Outcome {
	out.Err = err
	out.Phase = PhaseIdle
	r.fail(apperrors.MessageOf(err))
	return out
}

func (r *Reconciler) rollback(out Outcome, m *mutation, cause error, message string) Outcome {
	if err := m.rollback(); err != nil {
		r.logger.Error("rollback", zap.Error(err))
	}
	out.Err = cause
	out.Phase = m.phase
	r.logger.Warn("mutation rolled back",
		zap.String("op", string(out.Op)),
		zap.String("task_id", out.TaskID),
		zap.String("kind", string(apperrors.KindOf(cause))),
		zap.Error(cause),
	)
	if msg := apperrors.MessageOf(cause); msg != "" && isBackendMessage(cause) {
		message = message + " " + msg
	}
	r.fail(message)
	return out
}

func (r *Reconciler) confirm(out Outcome, m *mutation, task models.Task, message string) Outcome {
	if err := m.confirm(); err != nil {
		r.logger.Error("confirm", zap.Error(err))
	}
	out.Phase = m.phase
	if task.ID != "" {
		out.TaskID = task.ID
		out.Task = &task
	}
	r.notifier.Notify(Notice{Level: LevelSuccess, Message: message})
	return out
}

func (r *Reconciler) fail(message string) {
	r.notifier.Notify(Notice{Level: LevelError, Message: message})
}

func checkDraft(d models.Draft) error {
	if d.Title == "" {
		return errTitleRequired
	}
	if !d.Status.Valid() {
		return errBadStatus
	}
	return nil
}

// isBackendMessage reports whether the backend rejected the change with an
// explanation worth showing.
func isBackendMessage(err error) bool {
	var e *apperrors.Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Kind == apperrors.KindValidation && e.Status != 0
}

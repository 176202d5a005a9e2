package reconciler

import (
	"context"

	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/board"
	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

// Position is a slot inside one column.
type Position struct {
	Status models.Status `json:"status"`
	Index  int           `json:"index"`
}

// MoveEvent is the end of a drag. A nil Destination means the task was
// dropped outside every column.
type MoveEvent struct {
	Source      Position  `json:"source"`
	Destination *Position `json:"destination,omitempty"`
}

var errBadPosition = apperrors.New(apperrors.KindValidation, "Unknown column")

// Move reorders and retags the dragged task, then saves it remotely. A failed
// save restores the board as it was before the drag. Drops that go nowhere are
// ignored before the login check, so they never raise a notice.
func (r *Reconciler) Move(ctx context.Context, ev MoveEvent) Outcome {
	out := Outcome{Op: OpMove}
	if ev.Destination == nil || *ev.Destination == ev.Source {
		out.Ignored = true
		return out
	}
	if !r.authorized(&out, "Please log in to move tasks!") {
		return out
	}
	dst := *ev.Destination
	if !ev.Source.Status.Valid() || !dst.Status.Valid() {
		return r.reject(out, errBadPosition)
	}

	task, ok := r.store.TaskAt(ev.Source.Status, ev.Source.Index)
	if !ok {
		return r.reject(out, board.ErrTaskNotFound)
	}
	out.TaskID = task.ID

	m := newMutation(r.store)
	err := m.apply(func(s *board.Store) error {
		changed, err := s.ReorderAndRetag(task.ID, dst.Status, s.DropIndex(task.ID, dst.Status, dst.Index))
		if err == nil && !changed {
			return errUnchanged
		}
		return err
	})
	if err == errUnchanged {
		out.Ignored = true
		return out
	}
	if err != nil {
		return r.reject(out, err)
	}

	moved, _ := r.store.Get(task.ID)
	if _, err := r.gateway.Update(ctx, task.ID, moved); err != nil {
		return r.rollback(out, m, err, "Error updating task status!")
	}
	r.logger.Debug("task moved",
		zap.String("task_id", task.ID),
		zap.String("status", string(dst.Status)),
		zap.Int("index", dst.Index),
	)
	return r.confirm(out, m, moved, "Task status updated successfully!")
}

var errUnchanged = apperrors.New(apperrors.KindValidation, "unchanged")

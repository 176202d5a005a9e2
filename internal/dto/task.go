package dto

import (
	"github.com/yukikurage/taskboard-web/internal/board"
	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/reconciler"
)

// TaskRequest is the task form of the board.
type TaskRequest struct {
	Title       string        `json:"title" binding:"required,max=200"`
	Description string        `json:"description" binding:"max=2000"`
	Status      models.Status `json:"status" binding:"omitempty,oneof='To Do' 'In Progress' Done"`
}

// Draft converts the form into a draft without an id.
func (r TaskRequest) Draft() models.Draft {
	return models.Draft{Title: r.Title, Description: r.Description, Status: r.Status}.Normalize()
}

// PositionRequest is one end of a drag.
type PositionRequest struct {
	Status models.Status `json:"status" binding:"required"`
	Index  *int          `json:"index" binding:"required,min=0"`
}

// MoveRequest is a drag-end event. Destination is absent when the task was
// dropped outside every column.
type MoveRequest struct {
	Source      PositionRequest  `json:"source" binding:"required"`
	Destination *PositionRequest `json:"destination"`
}

// Event converts the request into a reconciler move event.
func (r MoveRequest) Event() reconciler.MoveEvent {
	ev := reconciler.MoveEvent{
		Source: reconciler.Position{Status: r.Source.Status, Index: *r.Source.Index},
	}
	if r.Destination != nil && r.Destination.Index != nil {
		ev.Destination = &reconciler.Position{Status: r.Destination.Status, Index: *r.Destination.Index}
	}
	return ev
}

// SuggestRequest carries free text to extract tasks from.
type SuggestRequest struct {
	Text string `json:"text" binding:"required,max=4000"`
}

// SuggestResponse lists drafts the user may add to the board.
type SuggestResponse struct {
	Drafts []models.Draft `json:"drafts"`
}

// BoardResponse is the rendered board plus the notices raised since the last render.
type BoardResponse struct {
	Columns []board.Column      `json:"columns"`
	Total   int                 `json:"total"`
	Notices []reconciler.Notice `json:"notices"`
}

// OutcomeResponse is returned by every board mutation.
type OutcomeResponse struct {
	Op      reconciler.Op `json:"op"`
	TaskID  string        `json:"task_id,omitempty"`
	Phase   string        `json:"phase"`
	Ignored bool          `json:"ignored,omitempty"`
	Task    *models.Task  `json:"task,omitempty"`
	Error   *ErrorBody    `json:"error,omitempty"`
	Board   BoardResponse `json:"board"`
}

// ErrorBody describes a failed outcome.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToBoardResponse renders store and drains inbox.
func ToBoardResponse(store *board.Store, inbox *reconciler.Inbox) BoardResponse {
	return BoardResponse{
		Columns: store.Columns(),
		Total:   store.Len(),
		Notices: inbox.Drain(),
	}
}

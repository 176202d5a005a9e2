// Package board holds the client-side ordered collection of tasks that the
// kanban board renders. Column contents are always derived from the single
// sequence by filtering on status; no per-column list is ever stored.
package board

import (
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

var (
	ErrTaskNotFound = apperrors.New(apperrors.KindNotFound, "task not found")
	ErrEmptyID      = apperrors.New(apperrors.KindValidation, "task id is required")
	ErrDuplicateID  = apperrors.New(apperrors.KindValidation, "task id already present")
	ErrIDMismatch   = apperrors.New(apperrors.KindValidation, "task id cannot change")
	ErrBadStatus    = apperrors.New(apperrors.KindValidation, "unknown task status")
)

// Column is the view of one status column.
type Column struct {
	Status models.Status `json:"status"`
	Tasks  []models.Task `json:"tasks"`
}

// Snapshot is a deep copy of the store contents.
type Snapshot struct {
	tasks []models.Task
}

// Len returns the number of tasks captured.
func (s Snapshot) Len() int { return len(s.tasks) }

// Store is safe for concurrent use. Each method is atomic with respect to the
// others, so readers never observe a half-applied change.
type Store struct {
	mu    sync.RWMutex
	tasks []models.Task
}

func NewStore() *Store {
	return &Store{}
}

// ReplaceAll overwrites the whole sequence. Malformed input leaves the store untouched.
func (s *Store) ReplaceAll(tasks []models.Task) error {
	if err := validateSequence(tasks); err != nil {
		return err
	}
	next := cloneTasks(tasks)

	s.mu.Lock()
	s.tasks = next
	s.mu.Unlock()
	return nil
}

// Insert appends task to the end of the sequence.
func (s *Store) Insert(task models.Task) error {
	if task.ID == "" {
		return ErrEmptyID
	}
	if !task.Status.Valid() {
		return ErrBadStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(task.ID) >= 0 {
		return ErrDuplicateID
	}
	s.tasks = append(s.tasks, task.Clone())
	return nil
}

// Update replaces the record with the given id, keeping its position.
func (s *Store) Update(id string, task models.Task) error {
	if task.ID == "" {
		task.ID = id
	}
	if task.ID != id {
		return ErrIDMismatch
	}
	if !task.Status.Valid() {
		return ErrBadStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	s.tasks[i] = task.Clone()
	return nil
}

// Promote swaps a provisional record for its backend-confirmed version in place.
func (s *Store) Promote(provisionalID string, task models.Task) error {
	if task.ID == "" {
		return ErrEmptyID
	}
	if !task.Status.Valid() {
		return ErrBadStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(provisionalID)
	if i < 0 {
		return ErrTaskNotFound
	}
	if j := s.indexLocked(task.ID); j >= 0 && j != i {
		return ErrDuplicateID
	}
	s.tasks[i] = task.Clone()
	return nil
}

// Remove deletes the record with the given id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return true
}

// ReorderAndRetag moves the task to index of the full sequence and sets its
// status. index is clamped to the sequence bounds. It reports false when the
// task already sits at index with status.
func (s *Store) ReorderAndRetag(id string, status models.Status, index int) (bool, error) {
	if !status.Valid() {
		return false, ErrBadStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.indexLocked(id)
	if from < 0 {
		return false, ErrTaskNotFound
	}
	index = clamp(index, 0, len(s.tasks)-1)
	if from == index && s.tasks[from].Status == status {
		return false, nil
	}

	moved := s.tasks[from]
	moved.Status = status
	rest := make([]models.Task, 0, len(s.tasks))
	rest = append(rest, s.tasks[:from]...)
	rest = append(rest, s.tasks[from+1:]...)

	next := make([]models.Task, 0, len(s.tasks))
	next = append(next, rest[:index]...)
	next = append(next, moved)
	next = append(next, rest[index:]...)
	s.tasks = next
	return true, nil
}

// DropIndex translates a drop at columnIndex of the status column into an
// index of the full sequence, ignoring the task being moved.
func (s *Store) DropIndex(id string, status models.Status, columnIndex int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rest := make([]int, 0, len(s.tasks))
	members := make([]int, 0)
	for i, t := range s.tasks {
		if t.ID == id {
			continue
		}
		if t.Status == status {
			members = append(members, len(rest))
		}
		rest = append(rest, i)
	}

	if columnIndex < 0 {
		columnIndex = 0
	}
	switch {
	case columnIndex < len(members):
		return members[columnIndex]
	case len(members) > 0:
		return members[len(members)-1] + 1
	default:
		return clamp(columnIndex, 0, len(rest))
	}
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// IndexOf returns the position of id in the full sequence, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id)
}

// TaskAt returns the task at index of the status column.
func (s *Store) TaskAt(status models.Status, columnIndex int) (models.Task, bool) {
	col := s.Column(status)
	if columnIndex < 0 || columnIndex >= len(col) {
		return models.Task{}, false
	}
	return col[columnIndex], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Tasks returns a copy of the full sequence.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Column returns the tasks of one status in sequence order.
func (s *Store) Column(status models.Status) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0)
	for _, t := range s.tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Columns returns every board column, in board order, from one consistent read.
func (s *Store) Columns() []Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := make([]Column, len(models.Statuses))
	for i, status := range models.Statuses {
		cols[i] = Column{Status: status, Tasks: make([]models.Task, 0)}
	}
	for _, t := range s.tasks {
		for i := range cols {
			if cols[i].Status == t.Status {
				cols[i].Tasks = append(cols[i].Tasks, t.Clone())
			}
		}
	}
	return cols
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{tasks: cloneTasks(s.tasks)}
}

// Restore puts the store back to snap exactly.
func (s *Store) Restore(snap Snapshot) {
	next := cloneTasks(snap.tasks)
	s.mu.Lock()
	s.tasks = next
	s.mu.Unlock()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func validateSequence(tasks []models.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		switch {
		case t.ID == "":
			return malformed(i, "missing id")
		case strings.TrimSpace(t.Title) == "":
			return malformed(i, "missing title")
		case !t.Status.Valid():
			return malformed(i, fmt.Sprintf("unknown status %q", t.Status))
		}
		if _, dup := seen[t.ID]; dup {
			return malformed(i, fmt.Sprintf("duplicate id %q", t.ID))
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

func malformed(i int, reason string) error {
	return &apperrors.Error{
		Kind:    apperrors.KindInvalidPayload,
		Op:      "board.ReplaceAll",
		Message: fmt.Sprintf("task %d: %s", i, reason),
	}
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

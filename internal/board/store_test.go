package board

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

func task(id string, status models.Status) models.Task {
	return models.Task{ID: id, Title: "Task " + id, Status: status}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func seeded(t *testing.T, tasks ...models.Task) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.ReplaceAll(tasks))
	return s
}

func TestReplaceAll_RejectsMalformedInput(t *testing.T) {
	s := seeded(t, task("1", models.StatusTodo))

	cases := map[string][]models.Task{
		"missing id":     {{Title: "x", Status: models.StatusTodo}},
		"missing title":  {{ID: "2", Status: models.StatusTodo}},
		"unknown status": {{ID: "2", Title: "x", Status: "Blocked"}},
		"duplicate id":   {task("2", models.StatusTodo), task("2", models.StatusDone)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.ReplaceAll(input)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidPayload))
			assert.Equal(t, []string{"1"}, ids(s.Tasks()))
		})
	}
}

func TestInsert(t *testing.T) {
	s := seeded(t, task("1", models.StatusTodo))

	require.NoError(t, s.Insert(task("2", models.StatusDone)))
	assert.Equal(t, []string{"1", "2"}, ids(s.Tasks()))

	assert.ErrorIs(t, s.Insert(task("", models.StatusDone)), ErrEmptyID)
	assert.ErrorIs(t, s.Insert(task("1", models.StatusDone)), ErrDuplicateID)
	assert.ErrorIs(t, s.Insert(task("3", "Later")), ErrBadStatus)
	assert.Equal(t, 2, s.Len())
}

func TestUpdate_PreservesPosition(t *testing.T) {
	s := seeded(t, task("1", models.StatusTodo), task("2", models.StatusTodo), task("3", models.StatusDone))

	edited := task("2", models.StatusDone)
	edited.Title = "Renamed"
	require.NoError(t, s.Update("2", edited))

	got, ok := s.Get("2")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 1, s.IndexOf("2"))

	assert.ErrorIs(t, s.Update("9", task("9", models.StatusTodo)), ErrTaskNotFound)
	assert.ErrorIs(t, s.Update("1", task("7", models.StatusTodo)), ErrIDMismatch)
	assert.True(t, apperrors.IsKind(s.Update("9", task("", models.StatusTodo)), apperrors.KindNotFound))
}

func TestPromote(t *testing.T) {
	s := seeded(t, task("1", models.StatusTodo), task("pending-a", models.StatusTodo), task("3", models.StatusDone))

	require.NoError(t, s.Promote("pending-a", task("99", models.StatusTodo)))
	assert.Equal(t, []string{"1", "99", "3"}, ids(s.Tasks()))

	assert.ErrorIs(t, s.Promote("pending-a", task("100", models.StatusTodo)), ErrTaskNotFound)
	assert.ErrorIs(t, s.Promote("99", task("1", models.StatusTodo)), ErrDuplicateID)
}

func TestRemove(t *testing.T) {
	s := seeded(t, task("1", models.StatusTodo), task("2", models.StatusDone))

	assert.True(t, s.Remove("1"))
	assert.False(t, s.Remove("1"))
	assert.Equal(t, []string{"2"}, ids(s.Tasks()))
}

func TestReorderAndRetag(t *testing.T) {
	s := seeded(t, task("1", models.StatusTodo), task("2", models.StatusDone))

	changed, err := s.ReorderAndRetag("1", models.StatusInProgress, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []models.Task{task("1", models.StatusInProgress), task("2", models.StatusDone)}, s.Tasks())

	changed, err = s.ReorderAndRetag("1", models.StatusInProgress, 0)
	require.NoError(t, err)
	assert.False(t, changed, "identical arguments must be a no-op")

	changed, err = s.ReorderAndRetag("1", models.StatusDone, 10)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"2", "1"}, ids(s.Tasks()))

	_, err = s.ReorderAndRetag("missing", models.StatusDone, 0)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.ReorderAndRetag("1", "Someday", 0)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestReorderAndRetag_KeepsRelativeOrderOfOthers(t *testing.T) {
	s := seeded(t,
		task("a", models.StatusTodo),
		task("b", models.StatusTodo),
		task("c", models.StatusInProgress),
		task("d", models.StatusDone),
		task("e", models.StatusTodo),
	)

	_, err := s.ReorderAndRetag("b", models.StatusDone, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d", "b", "e"}, ids(s.Tasks()))
}

func TestColumnsAreViewsOverOneSequence(t *testing.T) {
	s := seeded(t,
		task("a", models.StatusDone),
		task("b", models.StatusTodo),
		task("c", models.StatusDone),
	)

	cols := s.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, models.StatusTodo, cols[0].Status)
	assert.Equal(t, []string{"b"}, ids(cols[0].Tasks))
	assert.Empty(t, cols[1].Tasks)
	assert.Equal(t, []string{"a", "c"}, ids(cols[2].Tasks))

	got, ok := s.TaskAt(models.StatusDone, 1)
	require.True(t, ok)
	assert.Equal(t, "c", got.ID)
	_, ok = s.TaskAt(models.StatusDone, 2)
	assert.False(t, ok)
}

func TestDropIndex(t *testing.T) {
	s := seeded(t,
		task("a", models.StatusTodo),
		task("b", models.StatusDone),
		task("c", models.StatusTodo),
		task("d", models.StatusDone),
	)

	// rest without "a" is [b c d]
	assert.Equal(t, 0, s.DropIndex("a", models.StatusDone, 0), "before b")
	assert.Equal(t, 2, s.DropIndex("a", models.StatusDone, 1), "before d")
	assert.Equal(t, 3, s.DropIndex("a", models.StatusDone, 5), "after last Done")
	assert.Equal(t, 0, s.DropIndex("a", models.StatusInProgress, 0), "empty column")
	assert.Equal(t, 1, s.DropIndex("a", models.StatusTodo, 0), "own column, before c")
}

func TestSnapshotRestore(t *testing.T) {
	s := seeded(t, task("1", models.StatusTodo), task("2", models.StatusDone))
	snap := s.Snapshot()

	_, err := s.ReorderAndRetag("2", models.StatusTodo, 0)
	require.NoError(t, err)
	require.NoError(t, s.Insert(task("3", models.StatusDone)))

	s.Restore(snap)
	assert.Equal(t, []models.Task{task("1", models.StatusTodo), task("2", models.StatusDone)}, s.Tasks())
	assert.Equal(t, 2, snap.Len())
}

func TestRandomSequencesKeepMembership(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewStore()
	want := map[string]bool{}
	next := 0

	for step := 0; step < 2000; step++ {
		live := s.Tasks()
		switch op := rng.Intn(4); {
		case op == 0 || len(live) == 0:
			id := fmt.Sprintf("t%d", next)
			next++
			require.NoError(t, s.Insert(task(id, models.Statuses[rng.Intn(3)])))
			want[id] = true
		case op == 1:
			victim := live[rng.Intn(len(live))]
			require.True(t, s.Remove(victim.ID))
			delete(want, victim.ID)
		case op == 2:
			target := live[rng.Intn(len(live))]
			target.Title = fmt.Sprintf("edit %d", step)
			require.NoError(t, s.Update(target.ID, target))
		default:
			target := live[rng.Intn(len(live))]
			_, err := s.ReorderAndRetag(target.ID, models.Statuses[rng.Intn(3)], rng.Intn(len(live)+2))
			require.NoError(t, err)
		}

		got := s.Tasks()
		require.Len(t, got, len(want))
		seen := map[string]bool{}
		for _, tk := range got {
			require.True(t, want[tk.ID], "unexpected task %s", tk.ID)
			require.False(t, seen[tk.ID], "duplicate task %s", tk.ID)
			seen[tk.ID] = true
		}
	}
}

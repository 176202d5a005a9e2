package cli

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/testutil"
)

func run(t *testing.T, api *testutil.FakeAPI, token string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(tokenEnv, token)
	t.Setenv("API_BASE_URL", api.URL)

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seeded(t *testing.T) (*testutil.FakeAPI, string) {
	api := testutil.NewFakeAPI(t)
	token := api.AddAccount(models.User{Username: "Ada", Email: "ada@example.com"}, "secret1")
	api.SetTasks(
		testutil.Task("1", "Write docs", models.StatusTodo),
		testutil.Task("2", "Ship", models.StatusTodo),
		testutil.Task("3", "Review", models.StatusInProgress),
	)
	return api, token
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]models.Status{
		"todo":        models.StatusTodo,
		"To Do":       models.StatusTodo,
		"in-progress": models.StatusInProgress,
		"progress":    models.StatusInProgress,
		"DONE":        models.StatusDone,
	} {
		got, err := parseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseStatus("later")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddAccount(models.User{Username: "Ada", Email: "ada@example.com"}, "secret1")

	out, _, err := run(t, api, "", "login", "--email", "ada@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, _, err = run(t, api, "", "login", "--email", "ada@example.com", "--password", "wrong1")
	assert.ErrorContains(t, err, "Invalid email or password")

	_, _, err = run(t, api, "", "login", "--email", "ada@example.io", "--password", "secret1")
	assert.ErrorContains(t, err, ".com, .net or .org")
}

func TestBoard(t *testing.T) {
	api, token := seeded(t)

	out, _, err := run(t, api, token, "board")
	require.NoError(t, err)
	assert.Equal(t, "To Do (2)\n  0. [1] Write docs\n  1. [2] Ship\nIn Progress (1)\n  0. [3] Review\nDone (0)\n", out)
}

func TestAdd(t *testing.T) {
	api, token := seeded(t)
	api.SetNextID(42)

	out, stderr, err := run(t, api, token, "add", "Plan sprint", "-s", "done")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
	assert.Contains(t, stderr, "Task added successfully!")

	tasks := api.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, models.StatusDone, tasks[3].Status)
}

func TestMutationsRequireLogin(t *testing.T) {
	api, _ := seeded(t)

	_, stderr, err := run(t, api, "", "add", "Plan sprint")
	assert.Error(t, err)
	assert.Contains(t, stderr, "Please log in to add tasks!")
	assert.Zero(t, api.CountRequests("POST /tasks"))
}

func TestEdit(t *testing.T) {
	api, token := seeded(t)

	_, _, err := run(t, api, token, "edit", "2", "--title", "Ship it")
	require.NoError(t, err)

	tasks := api.Tasks()
	assert.Equal(t, "Ship it", tasks[1].Title)
	assert.Equal(t, models.StatusTodo, tasks[1].Status)

	_, _, err = run(t, api, token, "edit", "9", "--title", "x")
	assert.ErrorContains(t, err, "no task with id 9")
}

func TestMove(t *testing.T) {
	api, token := seeded(t)

	out, _, err := run(t, api, token, "move", "todo", "0", "progress", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "In Progress (2)\n  0. [3] Review\n  1. [1] Write docs\n")
	assert.Equal(t, 1, api.CountRequests("PUT /tasks/1"))

	out, _, err = run(t, api, token, "move", "done", "0", "done", "0")
	require.NoError(t, err)
	assert.Equal(t, "nothing to move\n", out)

	_, _, err = run(t, api, token, "move", "todo", "x", "done", "0")
	assert.ErrorContains(t, err, `invalid index "x"`)
}

func TestMoveRollsBackOnFailure(t *testing.T) {
	api, token := seeded(t)
	api.Fail(http.MethodPut, "/tasks/3", http.StatusInternalServerError, `{"message":"boom"}`, 1)

	_, stderr, err := run(t, api, token, "move", "progress", "0", "done", "0")
	assert.Error(t, err)
	assert.Contains(t, stderr, "! Error updating task status!")
	assert.Equal(t, models.StatusInProgress, api.Tasks()[2].Status)
}

func TestRm(t *testing.T) {
	api, token := seeded(t)

	_, stderr, err := run(t, api, token, "rm", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Task deleted successfully!")
	assert.Len(t, api.Tasks(), 2)
}

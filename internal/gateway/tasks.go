package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

// FetchAll reads every task. The body must be a JSON array of task records.
func (c *Client) FetchAll(ctx context.Context) ([]models.Task, error) {
	const op = "gateway.FetchAll"

	var raw []byte
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/tasks"}, &raw); err != nil {
		return nil, err
	}
	if !isJSONArray(raw) {
		return nil, invalidPayload(op, "task list is not an array")
	}

	var tasks []models.Task
	if err := sonic.Unmarshal(raw, &tasks); err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindInvalidPayload, Op: op, Message: "task list is malformed", Err: err}
	}
	for i, t := range tasks {
		if err := checkTask(t); err != nil {
			return nil, invalidPayload(op, fmt.Sprintf("task %d: %s", i, err))
		}
	}
	return tasks, nil
}

// Create posts a draft and returns the task with its backend-assigned id.
func (c *Client) Create(ctx context.Context, draft models.Draft) (models.Task, error) {
	const op = "gateway.Create"

	body, err := encodeJSON(op, draft)
	if err != nil {
		return models.Task{}, err
	}
	var created models.Task
	err = c.do(ctx, request{op: op, method: http.MethodPost, path: "/tasks", body: body, contentType: contentTypeJSON}, &created)
	if err != nil {
		return models.Task{}, err
	}
	if err := checkTask(created); err != nil {
		return models.Task{}, invalidPayload(op, "created task: "+err.Error())
	}
	return created, nil
}

// Update puts the full task record and returns the backend's version of it.
func (c *Client) Update(ctx context.Context, id string, task models.Task) (models.Task, error) {
	const op = "gateway.Update"

	body, err := encodeJSON(op, task)
	if err != nil {
		return models.Task{}, err
	}
	var updated models.Task
	err = c.do(ctx, request{op: op, method: http.MethodPut, path: taskPath(id), body: body, contentType: contentTypeJSON}, &updated)
	if err != nil {
		return models.Task{}, err
	}
	if err := checkTask(updated); err != nil {
		return models.Task{}, invalidPayload(op, "updated task: "+err.Error())
	}
	return updated, nil
}

// Delete removes the task. Only the status code matters.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, request{op: "gateway.Delete", method: http.MethodDelete, path: taskPath(id)}, nil)
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func checkTask(t models.Task) error {
	switch {
	case t.ID == "":
		return errors.New("missing _id")
	case strings.TrimSpace(t.Title) == "":
		return errors.New("missing title")
	case !t.Status.Valid():
		return fmt.Errorf("unknown status %q", t.Status)
	}
	return nil
}

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

func TestBoardRegistry_AcquireAndSweep(t *testing.T) {
	reg := NewBoardRegistry(time.Minute, nil)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	a := reg.Acquire("")
	require.NotEmpty(t, a.ID)
	assert.Same(t, a, reg.Acquire(a.ID))
	assert.False(t, a.Loaded())

	b := reg.Acquire("unknown-id")
	assert.NotEqual(t, "unknown-id", b.ID)
	assert.Equal(t, 2, reg.Len())

	now = now.Add(45 * time.Second)
	reg.Acquire(a.ID)
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, reg.Sweep())
	assert.Same(t, a, reg.Acquire(a.ID))

	reg.Drop(a.ID)
	assert.Zero(t, reg.Len())
}

func TestBoardRegistry_NoTTL(t *testing.T) {
	reg := NewBoardRegistry(0, nil)
	reg.Acquire("")
	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}

func fakeOpenAI(t *testing.T, content string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/chat/completions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o",
			"choices": []gin.H{{"index": 0, "message": gin.H{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestSuggest(t *testing.T) {
	content := "```json\n[{\"title\":\" Buy milk \",\"description\":\"2 litres\"},{\"title\":\"\"},{\"title\":\"Call Bob\"}]\n```"
	svc := NewSuggestionService("sk-test", fakeOpenAI(t, content))

	drafts, err := svc.Suggest(context.Background(), "buy milk and call bob")
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, models.Draft{Title: "Buy milk", Description: "2 litres", Status: models.StatusTodo}, drafts[0])
	assert.Equal(t, "Call Bob", drafts[1].Title)
}

func TestSuggest_Failures(t *testing.T) {
	var disabled *SuggestionService
	_, err := disabled.Suggest(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
	assert.Nil(t, NewSuggestionService("", ""))

	_, err = NewSuggestionService("sk-test", fakeOpenAI(t, "[]")).Suggest(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrAINoTasksGenerated)

	_, err = NewSuggestionService("sk-test", fakeOpenAI(t, "sure! here you go")).Suggest(context.Background(), "x")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidPayload))
}

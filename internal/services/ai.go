package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sashabaranov/go-openai"

	"github.com/yukikurage/taskboard-web/internal/constants"
	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

var (
	ErrAIServiceNotConfigured = apperrors.New(apperrors.KindUnavailable, "AI service is not configured")
	ErrAINoTasksGenerated     = apperrors.New(apperrors.KindValidation, "AI did not suggest any tasks")
)

// SuggestionService turns free text into task drafts with a chat model.
type SuggestionService struct {
	client *openai.Client
	model  string
}

type suggestedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewSuggestionService returns nil when apiKey is empty so callers can treat
// the feature as disabled.
func NewSuggestionService(apiKey, baseURL string) *SuggestionService {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &SuggestionService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4o,
	}
}

// Suggest extracts to-do drafts from text. Every draft lands in the To Do column.
func (s *SuggestionService) Suggest(ctx context.Context, text string) ([]models.Draft, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	prompt := fmt.Sprintf(`You extract concrete tasks from text for a kanban board.

Text:
%s

Return a JSON array of tasks in this format:
[
  {"title": "short task title", "description": "details, may be empty"}
]

Rules:
- Return [] when the text contains no task
- Return JSON only, no explanation`, text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNetwork, "services.Suggest", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.Wrap(apperrors.KindInvalidPayload, "services.Suggest", errors.New("no choices in completion"))
	}

	content := stripFence(resp.Choices[0].Message.Content)
	var raw []suggestedTask
	if err := sonic.UnmarshalString(content, &raw); err != nil {
		return nil, &apperrors.Error{
			Kind:    apperrors.KindInvalidPayload,
			Op:      "services.Suggest",
			Message: "AI response is not a task list",
			Err:     err,
		}
	}

	drafts := make([]models.Draft, 0, len(raw))
	for _, t := range raw {
		d := models.Draft{Title: t.Title, Description: strings.TrimSpace(t.Description)}.Normalize()
		if d.Title == "" {
			continue
		}
		drafts = append(drafts, d)
		if len(drafts) == constants.MaxSuggestedTasks {
			break
		}
	}
	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return drafts, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

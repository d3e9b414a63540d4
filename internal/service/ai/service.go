package ai

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/linqiu/polychat/backend/internal/config"
	"github.com/linqiu/polychat/backend/internal/model/chat"
)

// Service invokes the external generation backend. The backend binds the
// model name at construction, so one chat model is built lazily per
// catalog tag and cached for the process lifetime.
type Service struct {
	cfg config.AIConfig

	mu     sync.Mutex
	models map[string]model.ChatModel
}

// NewService creates the generation invoker.
func NewService(cfg config.AIConfig) (*Service, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("generation credentials missing")
	}
	return &Service{cfg: cfg, models: make(map[string]model.ChatModel)}, nil
}

// Generate runs one blocking generation call: ordered context in, complete
// text out. The call is bounded by the configured timeout; expiry surfaces
// as a plain failure to the caller.
func (s *Service) Generate(ctx context.Context, modelTag string, turns []chat.Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("context must not be empty")
	}

	chatModel, err := s.modelForTag(ctx, modelTag)
	if err != nil {
		return "", err
	}

	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.GenRoleModel:
			messages = append(messages, schema.AssistantMessage(turn.Text, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Text))
		}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	response, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", modelTag, err)
	}

	log.Printf("[ai] generated response, model=%s turns=%d length=%d", modelTag, len(turns), len(response.Content))
	return response.Content, nil
}

func (s *Service) modelForTag(ctx context.Context, tag string) (model.ChatModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.models[tag]; ok {
		return cached, nil
	}

	chatModel, err := s.cfg.NewChatModel(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", tag, err)
	}

	s.models[tag] = chatModel
	return chatModel, nil
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/techinnovate/receptionist/backend/internal/service/conversation"
)

// ErrEmptyReply reports that the model produced no usable content.
var ErrEmptyReply = errors.New("model returned no content")

// Service generates receptionist replies with session-scoped context.
type Service struct {
	chatModel model.BaseChatModel
	store     *conversation.Store
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the reply chain around the provided chat model.
// The session store supplies each session's accumulated history, which
// already carries the persona preamble as its first message.
func NewService(ctx context.Context, chatModel model.BaseChatModel, store *conversation.Store) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		store:     store,
		chain:     runnable,
	}, nil
}

// Reply appends the user's utterance to the session conversation and
// returns the model's completion. Failures are surfaced without retry.
func (s *Service) Reply(ctx context.Context, sessionID, userText string) (string, error) {
	session, created := s.store.GetOrCreate(sessionID)
	if created {
		log.Printf("[ai] created session %s", session.ID)
	}

	history, err := s.store.History(sessionID)
	if err != nil {
		return "", fmt.Errorf("load session history: %w", err)
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"history": history,
		"query":   userText,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyReply
	}

	if err := s.store.AppendExchange(sessionID,
		schema.UserMessage(userText),
		schema.AssistantMessage(response.Content, nil)); err != nil {
		// The session can only vanish here through a concurrent sweep;
		// the reply itself is still valid.
		log.Printf("[ai] failed to record exchange for session %s: %v", sessionID, err)
	}

	log.Printf("[ai] generated reply for session=%s length=%d", sessionID, len(response.Content))
	return response.Content, nil
}

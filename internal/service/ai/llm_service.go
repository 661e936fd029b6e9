package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/bluelight/licensekaki/backend/internal/config"
	chatservice "github.com/bluelight/licensekaki/backend/internal/service/chat"
)

// streamErrorReply is what the widget shows when generation breaks after the
// stream has started.
const streamErrorReply = "Sorry, an error occurred. Please try again."

// Service backs the chat transport with an LLM chain. It satisfies
// chatservice.Transport: zero or more tokens, then exactly one terminal
// event, or an error return when nothing was delivered at all.
type Service struct {
	prompts *PromptSource
	cfg     config.AIConfig
	chain   compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt/model chain used for every turn.
func NewService(ctx context.Context, prompts *PromptSource, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		prompts: prompts,
		cfg:     cfg,
		chain:   runnable,
	}, nil
}

// StreamingEnabled indicates whether replies are delivered token by token.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// StreamChat implements chatservice.Transport. With streaming disabled the
// whole reply arrives in the terminal event instead of tokens.
func (s *Service) StreamChat(ctx context.Context, req chatservice.Request, cb chatservice.Callbacks) error {
	input := s.buildChainInput(req)

	if !s.cfg.StreamResponse {
		response, err := s.chain.Invoke(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to run chat chain: %w", err)
		}
		log.Printf("[ai] generated reply for session=%s, length=%d", req.SessionID, len(response.Content))
		cb.OnDone(response.Content, SuggestFollowUps(req.Message))
		return nil
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to stream chat chain: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[ai] stream broke for session=%s: %v", req.SessionID, recvErr)
			cb.OnError(streamErrorReply)
			return nil
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)
		cb.OnToken(chunk.Content)
	}

	log.Printf("[ai] streamed reply for session=%s, length=%d", req.SessionID, full.Len())
	cb.OnDone(full.String(), SuggestFollowUps(req.Message))
	return nil
}

func (s *Service) buildChainInput(req chatservice.Request) map[string]any {
	return map[string]any{
		"system":  s.prompts.SystemPrompt(),
		"history": buildHistoryMessages(req),
		"query":   req.Message,
	}
}

// buildHistoryMessages converts the bounded context into model messages. The
// window includes the message being sent, which the template appends again
// as the query, so a matching trailing user entry is trimmed first.
func buildHistoryMessages(req chatservice.Request) []*schema.Message {
	entries := req.History
	if n := len(entries); n > 0 &&
		entries[n-1].Role == chatservice.HistoryRoleUser &&
		entries[n-1].Content == req.Message {
		entries = entries[:n-1]
	}
	if len(entries) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(entries))
	for _, entry := range entries {
		switch entry.Role {
		case chatservice.HistoryRoleUser:
			history = append(history, schema.UserMessage(entry.Content))
		case chatservice.HistoryRoleModel:
			history = append(history, schema.AssistantMessage(entry.Content, nil))
		}
	}
	return history
}

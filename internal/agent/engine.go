package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	defaultMaxRounds = 8

	// fallbackReply is spoken when the model keeps calling tools.
	fallbackReply = "I'm sorry, I didn't quite catch that. Could you say that again?"
)

// MessageClient is the slice of the Messages API the engine needs.
// *anthropic.MessageService satisfies it.
type MessageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// EngineConfig bounds each model call.
type EngineConfig struct {
	Model     string
	MaxTokens int64
	MaxRounds int
}

// Engine runs the tool loop for a caller turn.
type Engine struct {
	client MessageClient
	cfg    EngineConfig
	logger *slog.Logger
}

// NewEngine builds an engine over client.
func NewEngine(client MessageClient, cfg EngineConfig, logger *slog.Logger) *Engine {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: client, cfg: cfg, logger: logger}
}

// run executes one turn. The caller holds sess.mu.
func (e *Engine) run(ctx context.Context, sess *Session, text string) (TurnResult, error) {
	sess.history = append(sess.history, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))

	result := TurnResult{Tools: []string{}}
	apiTools := sess.tools.ToAPITools()

	var lastOutput string
	for round := 0; round < e.cfg.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		// Once a tool has asked to hang up, the model only gets to speak.
		closing := sess.hangup == HangupAfterReply

		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(e.cfg.Model),
			MaxTokens:   e.cfg.MaxTokens,
			Messages:    sess.history,
			System:      []anthropic.TextBlockParam{{Text: sess.instructions}},
			Temperature: anthropic.Float(sess.temperature),
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
			if closing {
				params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
			}
		}

		resp, err := e.client.New(ctx, params)
		if err != nil {
			return result, fmt.Errorf("messages api: %w", err)
		}

		var (
			reply   strings.Builder
			content []anthropic.ContentBlockParamUnion
			results []anthropic.ContentBlockParamUnion
		)
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				reply.WriteString(block.Text)
				content = append(content, anthropic.NewTextBlock(block.Text))
			case "tool_use":
				if closing {
					e.logger.Warn("tool call ignored after hangup request", "session", sess.ID, "tool", block.Name)
					continue
				}
				content = append(content, anthropic.NewToolUseBlock(block.ID, block.Input, block.Name))
				result.Tools = append(result.Tools, block.Name)

				out, err := sess.tools.Call(ctx, block.Name, block.Input)
				if err != nil {
					e.logger.Warn("tool failed", "session", sess.ID, "tool", block.Name, "error", err)
					results = append(results, anthropic.NewToolResultBlock(block.ID, err.Error(), true))
					continue
				}
				e.logger.Debug("tool executed", "session", sess.ID, "tool", block.Name)
				results = append(results, anthropic.NewToolResultBlock(block.ID, out, false))
				lastOutput = out
			}
		}
		if len(content) > 0 {
			sess.history = append(sess.history, anthropic.NewAssistantMessage(content...))
		}

		if len(results) == 0 {
			result.Reply = strings.TrimSpace(reply.String())
			if result.Reply == "" && closing && lastOutput != "" {
				result.Reply = lastOutput
				sess.history = append(sess.history, anthropic.NewAssistantMessage(anthropic.NewTextBlock(lastOutput)))
			}
			return e.finish(sess, result), nil
		}
		sess.history = append(sess.history, anthropic.NewUserMessage(results...))

		if sess.hangup == HangupNow {
			result.Reply = strings.TrimSpace(reply.String())
			return e.finish(sess, result), nil
		}
	}

	e.logger.Warn("tool round limit reached", "session", sess.ID, "rounds", e.cfg.MaxRounds)
	sess.history = append(sess.history, anthropic.NewAssistantMessage(anthropic.NewTextBlock(fallbackReply)))
	result.Reply = fallbackReply
	return e.finish(sess, result), nil
}

func (e *Engine) finish(sess *Session, result TurnResult) TurnResult {
	if sess.hangup != HangupNone {
		sess.ended = true
	}
	result.Ended = sess.ended
	result.Hangup = sess.hangup.String()
	return result
}

// OfflineClient answers every turn with a fixed apology. It stands in for
// the Messages API when no key is configured.
type OfflineClient struct{}

const offlineReply = "I'm sorry, our assistant is unavailable right now. Please call back later."

func (OfflineClient) New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	return &anthropic.Message{
		Role:       "assistant",
		StopReason: anthropic.StopReasonEndTurn,
		Content:    []anthropic.ContentBlockUnion{{Type: "text", Text: offlineReply}},
	}, nil
}

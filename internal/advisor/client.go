package advisor

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/julianstephens/calorix/internal/constants"
)

// ErrNotConfigured is returned by the disabled completer.
var ErrNotConfigured = errors.New("AI suggestions are not configured")

// Image is an inline picture sent along with a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is one prompt to the suggestion model.
type Request struct {
	System string
	Prompt string
	Image  *Image
}

// Completer sends a prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type anthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic returns a completer backed by the Messages API. Empty model
// and non-positive maxTokens fall back to the defaults.
func NewAnthropic(apiKey, model string, maxTokens int) Completer {
	if model == "" {
		model = constants.DefaultAIModel
	}
	if maxTokens <= 0 {
		maxTokens = constants.DefaultAIMaxTokens
	}
	return &anthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(2)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (a *anthropicCompleter) Complete(ctx context.Context, req Request) (string, error) {
	var blocks []anthropic.ContentBlockParamUnion
	if req.Image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.Image.MIMEType, base64.StdEncoding.EncodeToString(req.Image.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Disabled is the completer used when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

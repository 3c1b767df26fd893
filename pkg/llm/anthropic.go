package llm

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/factcheck/internal/resilience"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient implements Client using the official anthropic-sdk-go.
type AnthropicClient struct {
	client sdk.Client
}

// NewAnthropicClient creates a new Anthropic client backed by the SDK. SDK
// retries are disabled; callers decide how to degrade.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicClient{client: sdk.NewClient(all...)}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	blocks := []sdk.ContentBlockParamUnion{}
	if req.ImageDataURL != "" {
		mimeType, payload, err := SplitDataURL(req.ImageDataURL)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, sdk.NewImageBlockBase64(mimeType, payload))
	}
	blocks = append(blocks, sdk.NewTextBlock(req.User))

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		wrapped := eris.Wrap(err, "llm: anthropic create message")
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return nil, resilience.NewTransientError(wrapped, apiErr.StatusCode)
		}
		return nil, wrapped
	}

	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	return &Response{
		ID:      msg.ID,
		Model:   string(msg.Model),
		Content: text.String(),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// Package llm provides chat-completion clients for the vision and verdict
// models behind a single provider-neutral interface.
package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Client performs a single chat completion.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a system + user exchange with an optional inline image.
type Request struct {
	Model  string
	System string
	User   string
	// ImageDataURL is a "data:<mime>;base64,<payload>" URL attached to the
	// user message when set.
	ImageDataURL string
	MaxTokens    int
}

// Response is the text content of the first completion choice.
type Response struct {
	ID      string
	Model   string
	Content string
	Usage   Usage
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// ErrEmptyResponse is returned when the provider answers without content.
var ErrEmptyResponse = eris.New("llm: empty response")

// SplitDataURL returns the MIME type and base64 payload of a data URL.
func SplitDataURL(dataURL string) (mimeType, payload string, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", eris.New("llm: not a data url")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", eris.New("llm: data url missing payload")
	}
	mimeType, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", "", eris.New("llm: data url is not base64")
	}
	return mimeType, payload, nil
}

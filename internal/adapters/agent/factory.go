// Package agent implements the voice pipeline against the OpenAI realtime
// API: room audio in, transcription + model + speech out.
package agent

import (
	"github.com/Enoch-015/Kali-E/internal/core"
)

const defaultBaseURL = "wss://api.openai.com/v1/realtime"

// Factory builds realtime pipelines. Constructed once during wiring so a
// missing provider key surfaces as a configuration error up front.
type Factory struct {
	APIKey  string
	BaseURL string // defaults to the OpenAI realtime endpoint
}

func NewFactory(apiKey string) *Factory {
	return &Factory{APIKey: apiKey}
}

func (f *Factory) New(params core.PipelineParams) (core.Pipeline, error) {
	if f.APIKey == "" {
		return nil, &core.ConfigError{Option: "OPENAI_API_KEY"}
	}
	base := f.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Realtime{
		apiKey:  f.APIKey,
		baseURL: base,
		params:  params,
		done:    make(chan struct{}),
	}, nil
}

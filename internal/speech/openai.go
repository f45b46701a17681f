package speech

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAITranscriber uses the Whisper transcription endpoint.
type OpenAITranscriber struct {
	client *openai.Client
	model  openai.AudioModel
}

// OpenAIOption customizes an OpenAITranscriber.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL    string
	model      openai.AudioModel
	httpClient *http.Client
}

// WithBaseURL points the client at an OpenAI compatible server.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithModel overrides the transcription model.
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.model = openai.AudioModel(model) }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(c *openAIConfig) { c.httpClient = client }
}

// NewOpenAITranscriber creates a transcriber. An empty apiKey falls back to
// OPENAI_API_KEY.
func NewOpenAITranscriber(apiKey string, opts ...OpenAIOption) (*OpenAITranscriber, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("speech: OPENAI_API_KEY is not set")
	}

	cfg := openAIConfig{
		model:      openai.AudioModelWhisper1,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAITranscriber{client: &client, model: cfg.model}, nil
}

// Transcribe uploads the clip as WAV. The locale's language part ("pt" of
// "pt-BR") is passed as a hint.
func (o *OpenAITranscriber) Transcribe(ctx context.Context, clip *Clip, locale string) (string, error) {
	if clip == nil || len(clip.PCM) == 0 {
		return "", ErrUnintelligible
	}

	params := openai.AudioTranscriptionNewParams{
		Model: o.model,
		File:  openai.File(bytes.NewReader(clip.WAV()), "utterance.wav", "audio/wav"),
	}
	if lang, _, _ := strings.Cut(locale, "-"); lang != "" {
		params.Language = openai.String(strings.ToLower(lang))
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		svc := &ServiceError{Engine: "openai", Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			svc.StatusCode = apiErr.StatusCode
		}
		return "", svc
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gspeech "google.golang.org/api/speech/v1"
)

// GoogleTranscriber uses the Cloud Speech-to-Text v1 recognize endpoint.
type GoogleTranscriber struct {
	service *gspeech.Service
}

// NewGoogleTranscriber creates a transcriber. An empty apiKey falls back to
// GOOGLE_API_KEY. Extra options are passed to the service, for example
// option.WithEndpoint in tests.
func NewGoogleTranscriber(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GoogleTranscriber, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("speech: GOOGLE_API_KEY is not set")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := gspeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech: create google client: %w", err)
	}
	return &GoogleTranscriber{service: service}, nil
}

// Transcribe sends the clip as LINEAR16 and returns the top alternative.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, clip *Clip, locale string) (string, error) {
	if clip == nil || len(clip.PCM) == 0 {
		return "", ErrUnintelligible
	}

	req := &gspeech.RecognizeRequest{
		Config: &gspeech.RecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: int64(clip.SampleRate),
			LanguageCode:    locale,
		},
		Audio: &gspeech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(clip.PCM),
		},
	}

	resp, err := g.service.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		svc := &ServiceError{Engine: "google", Err: err}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			svc.StatusCode = apiErr.Code
		}
		return "", svc
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(result.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", ErrUnintelligible
	}
	return strings.Join(parts, " "), nil
}

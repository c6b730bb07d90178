package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
)

// HostConfig configures the model host client.
type HostConfig struct {
	// BaseURL is the root URL of the model sidecar, e.g. http://localhost:8090.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each capability call.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultHostConfig returns a config pointing at a local sidecar.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		BaseURL: "http://localhost:8090",
		Timeout: 2 * time.Minute,
	}
}

// ModelHost is an HTTP client for a model sidecar exposing all pipeline
// capabilities as JSON routes. It implements every capability interface;
// callers should depend on the narrow interfaces, not on ModelHost.
type ModelHost struct {
	config     HostConfig
	httpClient *http.Client
}

// NewModelHost creates a client for the given sidecar.
func NewModelHost(config HostConfig) *ModelHost {
	if config.Timeout <= 0 {
		config.Timeout = DefaultHostConfig().Timeout
	}
	return &ModelHost{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Warmup asks the sidecar to load its models and verifies reachability.
// Model loading is lazy on the sidecar; this makes it an explicit step so
// the first meeting does not absorb the load time.
func (h *ModelHost) Warmup(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := h.post(ctx, "/v1/warmup", struct{}{}, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("model host not ready (status %q): %w", resp.Status, mterrors.ErrCapabilityUnavailable)
	}
	return nil
}

// Transcribe implements Transcriber.
func (h *ModelHost) Transcribe(ctx context.Context, audioPath string) (*TranscribeResult, error) {
	req := struct {
		AudioPath string `json:"audio_path"`
	}{AudioPath: audioPath}

	var result TranscribeResult
	if err := h.post(ctx, "/v1/transcribe", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Diarize implements Diarizer. An empty turn list is a valid result.
func (h *ModelHost) Diarize(ctx context.Context, audioPath string) ([]SpeakerTurn, error) {
	req := struct {
		AudioPath string `json:"audio_path"`
	}{AudioPath: audioPath}

	var resp struct {
		Turns []SpeakerTurn `json:"turns"`
	}
	if err := h.post(ctx, "/v1/diarize", req, &resp); err != nil {
		return nil, err
	}
	return resp.Turns, nil
}

// Embed implements Embedder.
func (h *ModelHost) Embed(ctx context.Context, text string) ([]float64, error) {
	req := struct {
		Text string `json:"text"`
	}{Text: text}

	var resp struct {
		Vector []float64 `json:"vector"`
	}
	if err := h.post(ctx, "/v1/embed", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Vector) == 0 {
		return nil, fmt.Errorf("empty embedding vector: %w", mterrors.ErrParseFailure)
	}
	return resp.Vector, nil
}

// Score implements ActionClassifier.
func (h *ModelHost) Score(ctx context.Context, vector []float64) (float64, error) {
	req := struct {
		Vector []float64 `json:"vector"`
	}{Vector: vector}

	var resp struct {
		Probability float64 `json:"probability"`
	}
	if err := h.post(ctx, "/v1/classify/action", req, &resp); err != nil {
		return 0, err
	}
	if resp.Probability < 0 || resp.Probability > 1 {
		return 0, fmt.Errorf("probability %f out of range: %w", resp.Probability, mterrors.ErrParseFailure)
	}
	return resp.Probability, nil
}

// ExtractEntities implements EntityExtractor (token-classification model).
func (h *ModelHost) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	return h.extractEntities(ctx, "/v1/entities", text)
}

// ExtractEntitiesGeneric implements GenericEntityExtractor. The generic
// model reports no confidence; spans come back with Confidence zero and the
// caller fixes a value.
func (h *ModelHost) ExtractEntitiesGeneric(ctx context.Context, text string) ([]Entity, error) {
	return h.extractEntities(ctx, "/v1/entities/generic", text)
}

func (h *ModelHost) extractEntities(ctx context.Context, route, text string) ([]Entity, error) {
	req := struct {
		Text string `json:"text"`
	}{Text: text}

	var resp struct {
		Entities []Entity `json:"entities"`
	}
	if err := h.post(ctx, route, req, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// ParseDate implements DateParser. A nil timestamp with nil error means
// the text did not contain a parseable date.
func (h *ModelHost) ParseDate(ctx context.Context, text string, preferFuture bool) (*time.Time, error) {
	req := struct {
		Text         string `json:"text"`
		PreferFuture bool   `json:"prefer_future"`
	}{Text: text, PreferFuture: preferFuture}

	var resp struct {
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := h.post(ctx, "/v1/parse-date", req, &resp); err != nil {
		return nil, err
	}
	return resp.Timestamp, nil
}

// SplitSentences implements SentenceSegmenter.
func (h *ModelHost) SplitSentences(ctx context.Context, text string) ([]string, error) {
	req := struct {
		Text string `json:"text"`
	}{Text: text}

	var resp struct {
		Sentences []string `json:"sentences"`
	}
	if err := h.post(ctx, "/v1/sentences", req, &resp); err != nil {
		return nil, err
	}
	return resp.Sentences, nil
}

// Summarize implements Summarizer.
func (h *ModelHost) Summarize(ctx context.Context, text, prompt string) (string, error) {
	req := struct {
		Text   string `json:"text"`
		Prompt string `json:"prompt"`
	}{Text: text, Prompt: prompt}

	var resp struct {
		Summary string `json:"summary"`
	}
	if err := h.post(ctx, "/v1/summarize", req, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

// post sends a JSON request to the sidecar and decodes the response.
// Transport failures and non-200 statuses map to ErrCapabilityUnavailable;
// malformed bodies map to ErrParseFailure.
func (h *ModelHost) post(ctx context.Context, route string, reqBody, respBody interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := h.config.BaseURL + route
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request for %s: %w", route, mterrors.ErrCapabilityUnavailable)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", route, err, mterrors.ErrCapabilityUnavailable)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", route, mterrors.ErrParseFailure)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d: %s: %w", route, resp.StatusCode, truncate(respBytes, 200), mterrors.ErrCapabilityUnavailable)
	}

	if err := json.Unmarshal(respBytes, respBody); err != nil {
		return fmt.Errorf("decode response from %s: %v: %w", route, err, mterrors.ErrParseFailure)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Interface compliance.
var (
	_ Transcriber            = (*ModelHost)(nil)
	_ Diarizer               = (*ModelHost)(nil)
	_ Embedder               = (*ModelHost)(nil)
	_ ActionClassifier       = (*ModelHost)(nil)
	_ EntityExtractor        = (*ModelHost)(nil)
	_ GenericEntityExtractor = (*ModelHost)(nil)
	_ DateParser             = (*ModelHost)(nil)
	_ SentenceSegmenter      = (*ModelHost)(nil)
	_ Summarizer             = (*ModelHost)(nil)
)

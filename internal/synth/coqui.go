package synth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lexiqai/tts-gateway/internal/audio"
)

const (
	coquiSynthesizePath = "/api/tts"
	maxErrorBodyBytes   = 512
)

// CoquiClient implements Synthesizer against a Coqui TTS server
type CoquiClient struct {
	baseURL    string
	languageID string
	styleWAV   string
	httpClient *http.Client
}

// CoquiOption configures a CoquiClient
type CoquiOption func(*CoquiClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) CoquiOption {
	return func(cc *CoquiClient) { cc.httpClient = c }
}

// WithLanguageID sets the language for multilingual models
func WithLanguageID(id string) CoquiOption {
	return func(cc *CoquiClient) { cc.languageID = id }
}

// WithStyleWAV sets a reference clip for style transfer models
func WithStyleWAV(path string) CoquiOption {
	return func(cc *CoquiClient) { cc.styleWAV = path }
}

// NewCoquiClient creates a new Coqui TTS client
func NewCoquiClient(baseURL string, opts ...CoquiOption) *CoquiClient {
	c := &CoquiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // outer deadline comes from the request context
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Synthesizer
func (c *CoquiClient) Name() string { return "coqui" }

// Synthesize implements Synthesizer
func (c *CoquiClient) Synthesize(ctx context.Context, in Input) (*Audio, error) {
	// tts-server's /api/tts has no speed parameter
	if in.Speed > 0 && in.Speed != 1 {
		return nil, fmt.Errorf("%w: coqui renders at speed 1, got %s", ErrUnsupportedSpeed, strconv.FormatFloat(in.Speed, 'f', -1, 64))
	}

	q := url.Values{}
	q.Set("text", in.Text)
	q.Set("speaker_id", in.Speaker)
	q.Set("style_wav", c.styleWAV)
	q.Set("language_id", c.languageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coquiSynthesizePath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", MIMETypeWAV)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("coqui server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	if !audio.IsWAV(data) {
		return nil, fmt.Errorf("coqui server returned %d bytes that are not WAV", len(data))
	}

	return &Audio{Data: data, MIMEType: MIMETypeWAV}, nil
}

// Check implements Synthesizer by probing the server root
func (c *CoquiClient) Check(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, fmt.Errorf("coqui server returned status %d", resp.StatusCode)
	}
	return true, nil
}

// Package generation calls the upstream image generation API and
// normalizes its output into raw image bytes.
package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// ClientTimeout is the total request timeout for a generation call.
	// Image synthesis is slow, so this is much longer than a typical API timeout.
	ClientTimeout = 120 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second

	// maxImageBytes caps how much image data we read from the upstream.
	maxImageBytes = 32 << 20 // 32 MiB

	// defaultContentType is assumed when the upstream does not report one.
	defaultContentType = "image/png"
)

var (
	// ErrContentPolicy indicates the upstream rejected the prompt as sensitive.
	ErrContentPolicy = errors.New("prompt flagged by content policy")
	// ErrNoOutput indicates the upstream reported success but returned no image.
	ErrNoOutput = errors.New("no image output in response")
	// ErrGenerationFailed indicates the upstream could not produce an image.
	ErrGenerationFailed = errors.New("image generation failed")
)

// Image is a generated image normalized to raw bytes.
type Image struct {
	Data        []byte
	ContentType string
}

// Client calls a Replicate-compatible prediction API.
type Client struct {
	baseURL    string
	token      string
	model      string
	httpClient *http.Client
}

// NewClient creates a generation client for the given API endpoint and model.
func NewClient(baseURL, token, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = ClientTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: TLSHandshakeTimeout,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// predictionInput is the model input for a single square PNG render.
type predictionInput struct {
	Prompt        string `json:"prompt"`
	GoFast        bool   `json:"go_fast"`
	Megapixels    string `json:"megapixels"`
	NumOutputs    int    `json:"num_outputs"`
	AspectRatio   string `json:"aspect_ratio"`
	OutputFormat  string `json:"output_format"`
	OutputQuality int    `json:"output_quality"`
}

type predictionRequest struct {
	Input predictionInput `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Generate renders one image for the prompt and returns its bytes.
// Output from the upstream may be a URL list, a single URL, or an
// inline data URL; all shapes are normalized to raw bytes.
func (c *Client) Generate(ctx context.Context, prompt string) (*Image, error) {
	reqBody := predictionRequest{
		Input: predictionInput{
			Prompt:        prompt,
			GoFast:        true,
			Megapixels:    "1",
			NumOutputs:    1,
			AspectRatio:   "1:1",
			OutputFormat:  "png",
			OutputQuality: 80,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	// Hold the connection until the prediction completes instead of polling.
	req.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isContentPolicyError(string(body)) {
			return nil, ErrContentPolicy
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, truncate(string(body), 200))
	}

	var pred predictionResponse
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if pred.Status == "failed" || pred.Status == "canceled" {
		if isContentPolicyError(pred.Error) {
			return nil, ErrContentPolicy
		}
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, pred.Error)
	}

	output, err := firstOutput(pred.Output)
	if err != nil {
		return nil, err
	}

	return c.fetchImage(ctx, output)
}

// firstOutput extracts the first output entry from whatever shape the
// upstream returned.
func firstOutput(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", ErrNoOutput
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 || list[0] == "" {
			return "", ErrNoOutput
		}
		return list[0], nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return "", ErrNoOutput
		}
		return single, nil
	}

	return "", ErrNoOutput
}

// fetchImage resolves an output entry into raw bytes. Data URLs are
// decoded inline; anything else is fetched over HTTP.
func (c *Client) fetchImage(ctx context.Context, output string) (*Image, error) {
	if strings.HasPrefix(output, "data:") {
		return decodeDataURL(output)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, output, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoOutput
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = defaultContentType
	}

	return &Image{Data: data, ContentType: contentType}, nil
}

// decodeDataURL parses an RFC 2397 data URL into image bytes.
func decodeDataURL(u string) (*Image, error) {
	rest := strings.TrimPrefix(u, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URL")
	}

	meta := rest[:comma]
	payload := rest[comma+1:]

	contentType := defaultContentType
	if ct, _, ok := strings.Cut(meta, ";"); ok && ct != "" {
		contentType = ct
	} else if meta != "" && !strings.Contains(meta, ";") {
		contentType = meta
	}

	if !strings.Contains(meta, "base64") {
		return nil, fmt.Errorf("unsupported data URL encoding")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoOutput
	}

	return &Image{Data: data, ContentType: contentType}, nil
}

// isContentPolicyError reports whether an upstream error message looks
// like a safety rejection rather than a transient failure.
func isContentPolicyError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"sensitive", "flagged", "safety", "nsfw", "content policy"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Package gateway wraps the remote marketing backend behind five typed
// operations. Every call is a single request/response round trip: no retries,
// no coalescing. Expected failures come back as StudioError values, never
// panics.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"marketing-studio/internal/common/errors"
	commonhttp "marketing-studio/internal/common/http"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/common/metrics"
	"marketing-studio/internal/common/observability"
	"marketing-studio/internal/common/validation"
	"marketing-studio/internal/models"
)

// Recognized video link shapes. Queries and fragments after the id are ignored.
var videoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?v=([\w-]+)`),
	regexp.MustCompile(`^https?://(?:www\.)?youtu\.be/([\w-]+)`),
}

// A bare 11-character video id is accepted as well.
var bareVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID pulls the video id out of a recognized video link or bare id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.NewEmptyInputError("video_url")
	}

	if bareVideoID.MatchString(raw) {
		return raw, nil
	}

	for _, pattern := range videoURLPatterns {
		if match := pattern.FindStringSubmatch(raw); match != nil {
			return match[1], nil
		}
	}

	return "", errors.NewMalformedURLError(raw)
}

// CanonicalVideoURL returns the watch URL for a video id.
func CanonicalVideoURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client
	logger     logger.Logger
	obs        *observability.Observability
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: commonhttp.NewClient(timeout),
		logger: log.With(map[string]interface{}{
			"component": "gateway",
		}),
	}
}

// WithObservability attaches a meter for per-request recording.
func (c *Client) WithObservability(obs *observability.Observability) *Client {
	c.obs = obs
	return c
}

// RunForecast uploads two accepted data files and returns the forecast.
func (c *Client) RunForecast(ctx context.Context, customers, campaignHistory validation.AcceptedFile) (*models.ForecastResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, part := range []struct {
		field string
		file  validation.AcceptedFile
	}{
		{fieldCustomersFile, customers},
		{fieldCampaignHistoryFile, campaignHistory},
	} {
		fw, err := writer.CreateFormFile(part.field, part.file.Name)
		if err != nil {
			return nil, errors.NewTransportFaultError(OpForecast, err)
		}
		if _, err := fw.Write(part.file.Content); err != nil {
			return nil, errors.NewTransportFaultError(OpForecast, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewTransportFaultError(OpForecast, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forecast", &buf)
	if err != nil {
		return nil, errors.NewTransportFaultError(OpForecast, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	body, err := c.do(ctx, OpForecast, req)
	if err != nil {
		return nil, err
	}

	var parsed forecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewBackendDeclaredFailureError(OpForecast, fmt.Sprintf("undecodable success payload: %v", err))
	}
	if parsed.Status != "success" {
		return nil, errors.NewBackendDeclaredFailureError(OpForecast, fmt.Sprintf("status: %s", parsed.Status))
	}

	return &parsed.Results, nil
}

// GenerateImage asks the backend for a creative image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	body, err := c.postJSON(ctx, OpImage, "/img", imageRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.NewBackendDeclaredFailureError(OpImage, fmt.Sprintf("undecodable success payload: %v", err))
	}
	if parsed.ImageURL == "" {
		return "", errors.NewBackendDeclaredFailureError(OpImage, "response carried no image reference")
	}

	return parsed.ImageURL, nil
}

// GenerateSlogans asks the backend for slogans. The returned slice is ordered
// as the backend produced it and may legitimately be empty.
func (c *Client) GenerateSlogans(ctx context.Context, campaignContext string) ([]string, error) {
	body, err := c.postJSON(ctx, OpSlogan, "/slogan", sloganRequest{Context: campaignContext})
	if err != nil {
		return nil, err
	}

	var parsed sloganResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewBackendDeclaredFailureError(OpSlogan, fmt.Sprintf("undecodable success payload: %v", err))
	}

	return parsed.Slogans, nil
}

// IngestVideo validates the link shape locally, then asks the backend to
// index the video transcript. Malformed URLs never reach the network.
func (c *Client) IngestVideo(ctx context.Context, rawURL string) (*models.VideoSession, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := c.postJSON(ctx, OpVideoIngest, "/rag/process", ingestRequest{YoutubeURL: rawURL})
	if err != nil {
		return nil, err
	}

	var parsed ingestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewBackendDeclaredFailureError(OpVideoIngest, fmt.Sprintf("undecodable success payload: %v", err))
	}

	session := parsed.VideoInfo
	if session.CanonicalURL == "" {
		session.CanonicalURL = CanonicalVideoURL(videoID)
	}

	return &session, nil
}

// QueryVideo asks a question against the most recently ingested video.
// Session gating is the caller's responsibility; the gateway only transports.
func (c *Client) QueryVideo(ctx context.Context, question string) (string, error) {
	body, err := c.postJSON(ctx, OpVideoQuery, "/rag/query", queryRequest{Question: question})
	if err != nil {
		return "", err
	}

	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.NewBackendDeclaredFailureError(OpVideoQuery, fmt.Sprintf("undecodable success payload: %v", err))
	}

	return parsed.Answer, nil
}

// --- internals ---

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) postJSON(ctx context.Context, operation, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewTransportFaultError(operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.NewTransportFaultError(operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	return c.do(ctx, operation, req)
}

// do executes one exchange and normalizes the outcome: success payloads pass
// the schema gate, declared failures and transport faults come back typed.
func (c *Client) do(ctx context.Context, operation string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.DoWithContext(ctx, req)
	duration := time.Since(start)

	metrics.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if c.obs != nil {
		c.obs.RecordRequestDuration(ctx, operation, duration)
	}

	if err != nil {
		if isTimeout(err) {
			return nil, c.fail(ctx, operation, errors.NewTimeoutError(operation))
		}
		return nil, c.fail(ctx, operation, errors.NewTransportFaultError(operation, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, operation, errors.NewTransportFaultError(operation, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := backendDetail(body)
		if detail == "" {
			return nil, c.fail(ctx, operation,
				errors.NewTransportFaultError(operation, fmt.Errorf("backend returned %d without a parseable body", resp.StatusCode)))
		}
		return nil, c.fail(ctx, operation,
			errors.NewBackendDeclaredFailureError(operation, fmt.Sprintf("status %d: %s", resp.StatusCode, detail)))
	}

	if violations, err := checkResponseSchema(operation, body); err != nil {
		return nil, c.fail(ctx, operation, errors.NewTransportFaultError(operation, err))
	} else if violations != "" {
		return nil, c.fail(ctx, operation, errors.NewBackendDeclaredFailureError(operation, violations))
	}

	metrics.RequestsSucceeded.WithLabelValues(operation).Inc()
	if c.obs != nil {
		c.obs.RecordRequestSettled(ctx, operation, "success")
	}

	c.logger.Debug("request settled", map[string]interface{}{
		"operation": operation,
		"duration":  duration.String(),
	})

	return body, nil
}

// isTimeout classifies a transport error as a deadline expiry. The http
// client's own timeout surfaces as a net.Error with Timeout() true rather
// than wrapping context.DeadlineExceeded.
func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) fail(ctx context.Context, operation string, err *errors.StudioError) *errors.StudioError {
	metrics.RequestsFailed.WithLabelValues(operation, string(err.Code)).Inc()
	if c.obs != nil {
		c.obs.RecordRequestSettled(ctx, operation, "failure")
	}

	c.logger.Warn("request failed", map[string]interface{}{
		"operation": operation,
		"errorCode": string(err.Code),
		"details":   err.Details,
	})

	return err
}

// backendDetail extracts a failure description from a parseable error body.
func backendDetail(body []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error"} {
		if val, ok := parsed[key].(string); ok && val != "" {
			return val
		}
	}

	data, _ := json.Marshal(parsed)
	return string(data)
}

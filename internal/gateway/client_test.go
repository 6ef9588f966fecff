package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-studio/internal/common/errors"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/common/validation"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	return NewClient(serverURL, "test-api-key", 5*time.Second, logger.NewTestLogger(t))
}

func forecastSuccessBody() map[string]interface{} {
	return map[string]interface{}{
		"status": "success",
		"results": map[string]interface{}{
			"segment_count":             8,
			"recommended_campaign_type": "Email",
			"recommended_offer":         "Discount",
			"success_probability":       76.4,
			"privacy_compliant":         true,
			"campaign_details": map[string]interface{}{
				"type":             "Email",
				"offer":            "Discount",
				"target":           "HighIncome",
				"discount_percent": 20,
				"budget":           8000,
				"target_size":      5000,
			},
			"report_links": map[string]interface{}{
				"html": "http://backend/report.html",
				"pdf":  "http://backend/report.pdf",
			},
		},
	}
}

// ==========================
// Video link recognition
// ==========================

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr errors.ErrorCode
	}{
		{"watch url", "https://www.youtube.com/watch?v=abc123", "abc123", ""},
		{"watch url no www", "http://youtube.com/watch?v=abc-123", "abc-123", ""},
		{"short url", "https://youtu.be/xyz_987", "xyz_987", ""},
		{"short url with www", "https://www.youtu.be/xyz", "xyz", ""},
		{"bare eleven char id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", ""},
		{"trailing query ignored", "https://www.youtube.com/watch?v=abc123&t=42s", "abc123", ""},
		{"not a video link", "https://vimeo.com/12345", "", errors.ErrCodeMalformedURL},
		{"garbage", "not a url", "", errors.ErrCodeMalformedURL},
		{"empty", "   ", "", errors.ErrCodeEmptyInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ExtractVideoID(tc.raw)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tc.wantErr, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestCanonicalVideoURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", CanonicalVideoURL("abc123"))
}

// ==========================
// Forecast
// ==========================

func TestRunForecast_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(32<<20))

		file, header, err := r.FormFile("customers_file")
		require.NoError(t, err)
		file.Close()
		assert.Equal(t, "customers.csv", header.Filename)

		file, header, err = r.FormFile("campaign_history_file")
		require.NoError(t, err)
		file.Close()
		assert.Equal(t, "campaign_history.csv", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(forecastSuccessBody())
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.RunForecast(context.Background(),
		validation.AcceptedFile{Name: "customers.csv", Content: []byte("id,name\n1,a\n")},
		validation.AcceptedFile{Name: "campaign_history.csv", Content: []byte("id,type\n1,Email\n")},
	)

	require.NoError(t, err)
	assert.Equal(t, 8, result.SegmentCount)
	assert.Equal(t, "Email", result.RecommendedCampaignType)
	assert.InDelta(t, 76.4, result.SuccessProbability, 0.001)
	assert.True(t, result.PrivacyCompliant)
	assert.Equal(t, "HighIncome", result.CampaignDetails.Target)
	assert.Equal(t, "http://backend/report.pdf", result.ReportLinks.PDF)
}

func TestRunForecast_DeclaredNonSuccessStatus(t *testing.T) {
	body := forecastSuccessBody()
	body["status"] = "error"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RunForecast(context.Background(),
		validation.AcceptedFile{Name: "a.csv", Content: []byte("x")},
		validation.AcceptedFile{Name: "b.csv", Content: []byte("y")},
	)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBackendDeclaredFailure, errors.CodeOf(err))
}

func TestRunForecast_MissingExpectedField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RunForecast(context.Background(),
		validation.AcceptedFile{Name: "a.csv", Content: []byte("x")},
		validation.AcceptedFile{Name: "b.csv", Content: []byte("y")},
	)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBackendDeclaredFailure, errors.CodeOf(err))
}

// ==========================
// Image / Slogan
// ==========================

func TestGenerateImage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/img", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a summer sale banner", body["prompt"])

		w.Write([]byte(`{"image_url": "http://cdn/img/42.png"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	url, err := client.GenerateImage(context.Background(), "a summer sale banner")

	require.NoError(t, err)
	assert.Equal(t, "http://cdn/img/42.png", url)
}

func TestGenerateImage_MissingImageReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something_else": true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GenerateImage(context.Background(), "prompt")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBackendDeclaredFailure, errors.CodeOf(err))
}

func TestGenerateSlogans_OrderedAndPossiblyEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/slogan", r.URL.Path)
		w.Write([]byte(`{"slogans": ["First", "Second", "Third"]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	slogans, err := client.GenerateSlogans(context.Background(), "Email campaign for HighIncome")

	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second", "Third"}, slogans)
}

func TestGenerateSlogans_EmptyListIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"slogans": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	slogans, err := client.GenerateSlogans(context.Background(), "anything")

	require.NoError(t, err)
	assert.Empty(t, slogans)
}

// ==========================
// Video ingestion / query
// ==========================

func TestIngestVideo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/process", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://www.youtube.com/watch?v=abc123", body["youtube_url"])

		w.Write([]byte(`{"video_info": {"video_id": "abc123", "url": "https://www.youtube.com/watch?v=abc123", "chunk_count": 42}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.IngestVideo(context.Background(), "https://www.youtube.com/watch?v=abc123")

	require.NoError(t, err)
	assert.Equal(t, "abc123", session.VideoID)
	assert.Equal(t, 42, session.ChunkCount)
}

func TestIngestVideo_FillsCanonicalURLWhenAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"video_info": {"video_id": "abc123", "chunk_count": 7}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.IngestVideo(context.Background(), "https://youtu.be/abc123")

	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", session.CanonicalURL)
}

func TestIngestVideo_MalformedURLNeverDispatches(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.IngestVideo(context.Background(), "https://example.com/video")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedURL, errors.CodeOf(err))
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))
}

func TestQueryVideo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/query", r.URL.Path)
		w.Write([]byte(`{"answer": "It is about marketing."}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	answer, err := client.QueryVideo(context.Background(), "What is this about?")

	require.NoError(t, err)
	assert.Equal(t, "It is about marketing.", answer)
}

// ==========================
// Error normalization
// ==========================

func TestDo_NonSuccessWithParseableBodyIsDeclaredFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Transcripts disabled for video abc123"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.QueryVideo(context.Background(), "anything")

	require.Error(t, err)
	studioErr := errors.AsStudio(err)
	assert.Equal(t, errors.ErrCodeBackendDeclaredFailure, studioErr.Code)
	assert.Contains(t, studioErr.Details, "Transcripts disabled")
}

func TestDo_NonSuccessWithoutParseableBodyIsTransportFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GenerateImage(context.Background(), "prompt")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransportFault, errors.CodeOf(err))
}

func TestDo_ConnectionRefusedIsTransportFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := newTestClient(t, server.URL)
	_, err := client.GenerateImage(context.Background(), "prompt")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransportFault, errors.CodeOf(err))
}

func TestDo_TimeoutIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"answer": "late"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 50*time.Millisecond, logger.NewTestLogger(t))
	_, err := client.QueryVideo(context.Background(), "anything")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.CodeOf(err))
}

type fakeNetError struct {
	timeout bool
}

func (e fakeNetError) Error() string   { return "dial tcp: i/o timeout" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestIsTimeout_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "context deadline", err: context.DeadlineExceeded, want: true},
		{name: "wrapped context deadline", err: fmt.Errorf("round trip: %w", context.DeadlineExceeded), want: true},
		{name: "os deadline", err: os.ErrDeadlineExceeded, want: true},
		{name: "net error with timeout", err: &url.Error{Op: "Post", URL: "http://backend", Err: fakeNetError{timeout: true}}, want: true},
		{name: "net error without timeout", err: fakeNetError{timeout: false}, want: false},
		{name: "plain error mentioning timeout", err: stderrors.New("operation timeout budget exceeded"), want: false},
		{name: "connection refused", err: stderrors.New("dial tcp: connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTimeout(tt.err))
		})
	}
}

// internal/gateway/models.go
package gateway

import "marketing-studio/internal/models"

// Operation names used for logging and metrics labels.
const (
	OpForecast    = "forecast"
	OpImage       = "image"
	OpSlogan      = "slogan"
	OpVideoIngest = "video-ingest"
	OpVideoQuery  = "video-query"
)

// Multipart field names the forecast endpoint expects.
const (
	fieldCustomersFile       = "customers_file"
	fieldCampaignHistoryFile = "campaign_history_file"
)

// --- wire shapes ---

type forecastResponse struct {
	Status  string                `json:"status"`
	Results models.ForecastResult `json:"results"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	ImageURL string `json:"image_url"`
}

type sloganRequest struct {
	Context string `json:"context"`
}

type sloganResponse struct {
	Slogans []string `json:"slogans"`
}

type ingestRequest struct {
	YoutubeURL string `json:"youtube_url"`
}

type ingestResponse struct {
	VideoInfo models.VideoSession `json:"video_info"`
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

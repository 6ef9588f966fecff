// internal/models/forecast.go
package models

// ForecastResult is the outcome of a forecast run. It is the only entity
// shared across workflows; once stored it is treated as immutable and only
// ever replaced wholesale.
type ForecastResult struct {
	SegmentCount            int             `json:"segment_count"`
	RecommendedCampaignType string          `json:"recommended_campaign_type"`
	RecommendedOffer        string          `json:"recommended_offer"`
	SuccessProbability      float64         `json:"success_probability"` // percent, [0,100]
	PrivacyCompliant        bool            `json:"privacy_compliant"`
	CampaignDetails         CampaignDetails `json:"campaign_details"`
	ReportLinks             ReportLinks     `json:"report_links"`
}

type CampaignDetails struct {
	Type            string  `json:"type"`
	Offer           string  `json:"offer"`
	Target          string  `json:"target"`
	DiscountPercent float64 `json:"discount_percent"`
	Budget          float64 `json:"budget"`
	TargetSize      int     `json:"target_size"`
}

type ReportLinks struct {
	HTML string `json:"html,omitempty"`
	PDF  string `json:"pdf,omitempty"`
}

// internal/workflows/forecast/models.go
package forecast

import "marketing-studio/internal/common/validation"

// Input carries the two data files a forecast run needs.
type Input struct {
	Customers       validation.Candidate
	CampaignHistory validation.Candidate
}

// internal/workflows/slogan/controller.go
package slogan

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"marketing-studio/internal/common/errors"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/common/metrics"
	"marketing-studio/internal/models"
	"marketing-studio/internal/store"
	"marketing-studio/internal/workflows/lifecycle"
)

const Workflow = "slogan"

// Gateway is the slice of the backend client this workflow needs.
type Gateway interface {
	GenerateSlogans(ctx context.Context, campaignContext string) ([]string, error)
}

// Controller drives the slogan workflow. Like the image workflow it can
// prefill its context field from the latest stored forecast.
type Controller struct {
	config    *Config
	gateway   Gateway
	store     *store.SessionStore
	lifecycle *lifecycle.Machine
	logger    logger.Logger

	mu      sync.Mutex
	slogans []string
	haveRun bool
}

func NewController(config *Config, gw Gateway, st *store.SessionStore, log logger.Logger) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", Workflow, err)
	}

	if log == nil {
		log = logger.NewStructured("info", "json")
	}

	return &Controller{
		config:    config,
		gateway:   gw,
		store:     st,
		lifecycle: lifecycle.NewMachine(Workflow, st, log),
		logger: log.With(map[string]interface{}{
			"workflow": Workflow,
		}),
	}, nil
}

// FormatContext renders a forecast into the slogan context deterministically.
// Campaign type, offer and target appear verbatim.
func FormatContext(r models.ForecastResult) string {
	return fmt.Sprintf(
		"Campaign type: %s. Offer: %s. Target segment: %s. Discount: %.0f%%. Budget: %.0f.",
		r.RecommendedCampaignType, r.RecommendedOffer, r.CampaignDetails.Target,
		r.CampaignDetails.DiscountPercent, r.CampaignDetails.Budget,
	)
}

// UseForecastData formats the stored forecast into the context field.
func (c *Controller) UseForecastData() (string, error) {
	result, ok := c.store.ForecastResult()
	if !ok {
		err := errors.NewMissingPreconditionError("no forecast result available; run a forecast first")
		metrics.ValidationRejections.WithLabelValues(string(err.Code)).Inc()
		return "", err
	}
	return FormatContext(result), nil
}

// Submit dispatches one slogan generation request. An empty context is
// rejected before any network call.
func (c *Controller) Submit(ctx context.Context, campaignContext string) error {
	if strings.TrimSpace(campaignContext) == "" {
		err := errors.NewEmptyInputError("context")
		metrics.ValidationRejections.WithLabelValues(string(err.Code)).Inc()
		return err
	}

	token, requestID, err := c.lifecycle.Begin()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	slogans, err := c.gateway.GenerateSlogans(ctx, campaignContext)
	if err != nil {
		c.lifecycle.Fail(token, errors.AsStudio(err))
		return err
	}

	if !c.lifecycle.Succeed(token, func() {
		c.mu.Lock()
		c.slogans = slogans
		c.haveRun = true
		c.mu.Unlock()
	}) {
		return nil
	}

	c.logger.Info("slogans generated", map[string]interface{}{
		"requestId": requestID,
		"count":     len(slogans),
	})
	return nil
}

// Reset returns the workflow to Idle on a user edit of the context.
func (c *Controller) Reset() {
	c.lifecycle.Reset()
}

// State returns the workflow's lifecycle state.
func (c *Controller) State() lifecycle.State {
	return c.lifecycle.State()
}

// LastError returns the most recent failure, if the workflow is Failed.
func (c *Controller) LastError() *errors.StudioError {
	return c.lifecycle.LastError()
}

// Slogans returns the latest generated slogans. The slice may be empty even
// after a successful run; the second return distinguishes "ran and got none"
// from "never ran".
func (c *Controller) Slogans() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.haveRun {
		return nil, false
	}
	out := make([]string, len(c.slogans))
	copy(out, c.slogans)
	return out, true
}

// internal/workflows/forecast/controller.go
package forecast

import (
	"context"
	"fmt"
	"sync"

	"marketing-studio/internal/common/errors"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/common/metrics"
	"marketing-studio/internal/common/validation"
	"marketing-studio/internal/models"
	"marketing-studio/internal/store"
	"marketing-studio/internal/workflows/lifecycle"
)

const Workflow = "forecast"

// Gateway is the slice of the backend client this workflow needs.
type Gateway interface {
	RunForecast(ctx context.Context, customers, campaignHistory validation.AcceptedFile) (*models.ForecastResult, error)
}

// Controller drives the forecast workflow: validate both uploads, run the
// forecast, publish the result. It is the single writer of the shared store's
// forecast slot.
type Controller struct {
	config    *Config
	gateway   Gateway
	store     *store.SessionStore
	lifecycle *lifecycle.Machine
	logger    logger.Logger

	mu     sync.Mutex
	result *models.ForecastResult
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

// Submit validates the uploads, dispatches one forecast request and applies
// the outcome. Validation rejections surface immediately: no state
// transition, no network call. While a request is in flight, Submit is
// refused. The call blocks until the request settles; run it from the page's
// event goroutine.
func (c *Controller) Submit(ctx context.Context, input Input) error {
	customers, err := validation.ValidateUpload(input.Customers, c.config.Policy)
	if err != nil {
		return c.reject("customers_file", err)
	}

	history, err := validation.ValidateUpload(input.CampaignHistory, c.config.Policy)
	if err != nil {
		return c.reject("campaign_history_file", err)
	}

	token, requestID, err := c.lifecycle.Begin()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.gateway.RunForecast(ctx, customers, history)
	if err != nil {
		c.lifecycle.Fail(token, errors.AsStudio(err))
		return err
	}

	// Publish under the token check so a reset-plus-resubmit racing this
	// completion can never commit a stale result.
	if !c.lifecycle.Succeed(token, func() {
		c.mu.Lock()
		c.result = result
		c.mu.Unlock()
		c.store.SetForecastResult(*result)
	}) {
		// Superseded while in flight; the store keeps the newer result.
		return nil
	}

	c.logger.Info("forecast completed", map[string]interface{}{
		"requestId":    requestID,
		"segmentCount": result.SegmentCount,
	})
	return nil
}

// Reset returns the workflow to Idle on a user edit of the input form.
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

// Result returns this page's copy of the latest successful forecast.
func (c *Controller) Result() (models.ForecastResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return models.ForecastResult{}, false
	}
	return *c.result, true
}

func (c *Controller) reject(field string, err error) error {
	studioErr := errors.AsStudio(err)
	metrics.ValidationRejections.WithLabelValues(string(studioErr.Code)).Inc()

	c.logger.Warn("input rejected", map[string]interface{}{
		"field":     field,
		"errorCode": string(studioErr.Code),
	})
	return err
}

// internal/workflows/image/controller.go
package image

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

const Workflow = "image"

// Gateway is the slice of the backend client this workflow needs.
type Gateway interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Controller drives the creative image workflow. It reads the shared store
// (never writes it) to prefill its prompt from the latest forecast.
type Controller struct {
	config    *Config
	gateway   Gateway
	store     *store.SessionStore
	lifecycle *lifecycle.Machine
	logger    logger.Logger

	mu       sync.Mutex
	imageURL string
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

// FormatPrompt renders a forecast into the image prompt deterministically.
// The campaign type, offer and target appear verbatim; the success
// probability is deliberately not embedded.
func FormatPrompt(r models.ForecastResult) string {
	return fmt.Sprintf(
		"Create a promotional marketing image for a %s campaign offering %s, aimed at %s.",
		r.RecommendedCampaignType, r.RecommendedOffer, r.CampaignDetails.Target,
	)
}

// UseForecastData formats the stored forecast into a prompt. Absence of a
// stored result is a precondition failure, not a silent no-op.
func (c *Controller) UseForecastData() (string, error) {
	result, ok := c.store.ForecastResult()
	if !ok {
		err := errors.NewMissingPreconditionError("no forecast result available; run a forecast first")
		metrics.ValidationRejections.WithLabelValues(string(err.Code)).Inc()
		return "", err
	}
	return FormatPrompt(result), nil
}

// Submit dispatches one image generation request. Empty prompts are rejected
// before any network call; while a request is in flight, Submit is refused.
func (c *Controller) Submit(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		err := errors.NewEmptyInputError("prompt")
		metrics.ValidationRejections.WithLabelValues(string(err.Code)).Inc()
		return err
	}

	token, requestID, err := c.lifecycle.Begin()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	imageURL, err := c.gateway.GenerateImage(ctx, prompt)
	if err != nil {
		c.lifecycle.Fail(token, errors.AsStudio(err))
		return err
	}

	if !c.lifecycle.Succeed(token, func() {
		c.mu.Lock()
		c.imageURL = imageURL
		c.mu.Unlock()
	}) {
		return nil
	}

	c.logger.Info("image generated", map[string]interface{}{
		"requestId": requestID,
	})
	return nil
}

// Reset returns the workflow to Idle on a user edit of the prompt.
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

// ImageURL returns the page-local reference of the latest generated image.
func (c *Controller) ImageURL() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageURL, c.imageURL != ""
}

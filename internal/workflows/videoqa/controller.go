// internal/workflows/videoqa/controller.go
package videoqa

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"marketing-studio/internal/common/errors"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/common/metrics"
	"marketing-studio/internal/gateway"
	"marketing-studio/internal/models"
	"marketing-studio/internal/store"
	"marketing-studio/internal/workflows/lifecycle"
)

const Workflow = "video-qa"

// Gateway is the slice of the backend client this workflow needs.
type Gateway interface {
	IngestVideo(ctx context.Context, rawURL string) (*models.VideoSession, error)
	QueryVideo(ctx context.Context, question string) (string, error)
}

// Controller drives the video Q&A workflow. It owns the VideoSession: a
// query is only dispatched after a successful ingestion, and a new ingestion
// replaces the session wholesale.
type Controller struct {
	config    *Config
	gateway   Gateway
	lifecycle *lifecycle.Machine
	logger    logger.Logger

	mu      sync.Mutex
	session *models.VideoSession
	answer  string
	haveAns bool
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
		lifecycle: lifecycle.NewMachine(Workflow, st, log),
		logger: log.With(map[string]interface{}{
			"workflow": Workflow,
		}),
	}, nil
}

// SubmitIngest validates the link shape and asks the backend to index the
// video. Malformed URLs are rejected before any network call. Re-ingesting
// the currently active video is a no-op success.
func (c *Controller) SubmitIngest(ctx context.Context, rawURL string) error {
	videoID, err := gateway.ExtractVideoID(rawURL)
	if err != nil {
		studioErr := errors.AsStudio(err)
		metrics.ValidationRejections.WithLabelValues(string(studioErr.Code)).Inc()
		return err
	}

	c.mu.Lock()
	already := c.session != nil && c.session.VideoID == videoID
	c.mu.Unlock()
	if already {
		c.logger.Info("video already ingested", map[string]interface{}{
			"videoId": videoID,
		})
		return nil
	}

	token, requestID, err := c.lifecycle.Begin()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.IngestTimeout)
	defer cancel()

	session, err := c.gateway.IngestVideo(ctx, rawURL)
	if err != nil {
		c.lifecycle.Fail(token, errors.AsStudio(err))
		return err
	}

	if !c.lifecycle.Succeed(token, func() {
		c.mu.Lock()
		c.session = session
		c.answer = ""
		c.haveAns = false
		c.mu.Unlock()
	}) {
		return nil
	}

	c.logger.Info("video ingested", map[string]interface{}{
		"requestId":  requestID,
		"videoId":    session.VideoID,
		"chunkCount": session.ChunkCount,
	})
	return nil
}

// SubmitQuery asks a question against the active session. With no session
// the submission fails as a precondition, without any network call.
func (c *Controller) SubmitQuery(ctx context.Context, question string) error {
	if strings.TrimSpace(question) == "" {
		err := errors.NewEmptyInputError("question")
		metrics.ValidationRejections.WithLabelValues(string(err.Code)).Inc()
		return err
	}

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		err := errors.NewMissingPreconditionError("no video ingested; process a video first")
		metrics.ValidationRejections.WithLabelValues(string(err.Code)).Inc()
		return err
	}

	token, requestID, err := c.lifecycle.Begin()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.QueryTimeout)
	defer cancel()

	answer, err := c.gateway.QueryVideo(ctx, question)
	if err != nil {
		c.lifecycle.Fail(token, errors.AsStudio(err))
		return err
	}

	if !c.lifecycle.Succeed(token, func() {
		c.mu.Lock()
		c.answer = answer
		c.haveAns = true
		c.mu.Unlock()
	}) {
		return nil
	}

	c.logger.Info("video query answered", map[string]interface{}{
		"requestId": requestID,
		"videoId":   session.VideoID,
	})
	return nil
}

// Reset returns the workflow to Idle on a user edit. The session survives a
// reset; only a new ingestion replaces it.
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

// Session returns the active video session, if any.
func (c *Controller) Session() (models.VideoSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return models.VideoSession{}, false
	}
	return *c.session, true
}

// Answer returns the latest answer, if a query has completed.
func (c *Controller) Answer() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answer, c.haveAns
}

// Describe summarizes the active session for display.
func (c *Controller) Describe() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return "no video ingested"
	}
	return fmt.Sprintf("video %s (%d chunks)", c.session.VideoID, c.session.ChunkCount)
}

package image

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-studio/internal/common/errors"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/models"
	"marketing-studio/internal/store"
	"marketing-studio/internal/workflows/lifecycle"
)

type fakeGateway struct {
	calls    int32
	imageURL string
	err      error
}

func (f *fakeGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	return f.imageURL, nil
}

func newController(t *testing.T, gw Gateway) (*Controller, *store.SessionStore) {
	t.Helper()
	st := store.New(logger.NewTestLogger(t))
	c, err := NewController(DefaultConfig(), gw, st, logger.NewTestLogger(t))
	require.NoError(t, err)
	return c, st
}

func TestNewController_RejectsInvalidConfig(t *testing.T) {
	st := store.New(logger.NewTestLogger(t))

	c, err := NewController(&Config{Timeout: 0}, &fakeGateway{}, st, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestFormatPrompt_EmbedsForecastVerbatim(t *testing.T) {
	prompt := FormatPrompt(models.ForecastResult{
		RecommendedCampaignType: "Email",
		RecommendedOffer:        "20% Discount",
		SuccessProbability:      76.4,
		CampaignDetails:         models.CampaignDetails{Target: "HighIncome"},
	})

	assert.Contains(t, prompt, "Email")
	assert.Contains(t, prompt, "20% Discount")
	assert.Contains(t, prompt, "HighIncome")
	// The probability is display data, not creative direction.
	assert.NotContains(t, prompt, "76")
}

func TestFormatPrompt_Deterministic(t *testing.T) {
	r := models.ForecastResult{
		RecommendedCampaignType: "Social",
		RecommendedOffer:        "Free Trial",
		CampaignDetails:         models.CampaignDetails{Target: "Students"},
	}
	assert.Equal(t, FormatPrompt(r), FormatPrompt(r))
}

func TestUseForecastData_RequiresStoredForecast(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})

	_, err := c.UseForecastData()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMissingPrecondition, errors.CodeOf(err))
}

func TestUseForecastData_FormatsStoredForecast(t *testing.T) {
	c, st := newController(t, &fakeGateway{})
	st.SetForecastResult(models.ForecastResult{
		RecommendedCampaignType: "Email",
		RecommendedOffer:        "Discount",
		CampaignDetails:         models.CampaignDetails{Target: "HighIncome"},
	})

	prompt, err := c.UseForecastData()
	require.NoError(t, err)
	assert.Contains(t, prompt, "Email")
	assert.Contains(t, prompt, "Discount")
	assert.Contains(t, prompt, "HighIncome")
}

func TestSubmit_Success(t *testing.T) {
	gw := &fakeGateway{imageURL: "https://cdn.example.com/img/abc.png"}
	c, st := newController(t, gw)

	require.NoError(t, c.Submit(context.Background(), "a sunny banner"))

	assert.Equal(t, lifecycle.Succeeded, c.State())
	url, ok := c.ImageURL()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/img/abc.png", url)
	assert.False(t, st.Busy())
}

func TestSubmit_EmptyPromptNeverDispatches(t *testing.T) {
	gw := &fakeGateway{imageURL: "https://cdn.example.com/img/abc.png"}
	c, _ := newController(t, gw)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		err := c.Submit(context.Background(), prompt)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeEmptyInput, errors.CodeOf(err))
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&gw.calls))
	assert.Equal(t, lifecycle.Idle, c.State())
}

func TestSubmit_FailureKeepsPreviousImage(t *testing.T) {
	gw := &fakeGateway{imageURL: "https://cdn.example.com/img/first.png"}
	c, _ := newController(t, gw)

	require.NoError(t, c.Submit(context.Background(), "first"))

	gw.err = errors.NewTransportFaultError("image", assert.AnError)
	err := c.Submit(context.Background(), "second")
	require.Error(t, err)

	assert.Equal(t, lifecycle.Failed, c.State())
	url, ok := c.ImageURL()
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(url, "first.png"))
}

// cmd/studio/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketing-studio/internal/common/config"
	studioerrors "marketing-studio/internal/common/errors"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/common/observability"
	"marketing-studio/internal/common/validation"
	"marketing-studio/internal/gateway"
	"marketing-studio/internal/store"

	"marketing-studio/internal/workflows/forecast"
	"marketing-studio/internal/workflows/image"
	"marketing-studio/internal/workflows/slogan"
	"marketing-studio/internal/workflows/videoqa"
)

// maxUploadBytes caps multipart memory before the validation pipeline runs.
const maxUploadBytes = 32 << 20

func main() {
	configFile := flag.String("config", "", "path to a config file; the configs directory is searched when unset")
	flag.Parse()

	zapLog := logger.New("info", "console")
	// Deferred as a closure so the logger rebuilt after config load is the
	// one that gets synced on exit.
	defer func() { _ = zapLog.Sync() }()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting marketing studio...")

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFromFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with configured level/format
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log = logger.NewZapAdapter(zapLog)

	obs := observability.New("marketing-studio")
	defer obs.Shutdown()

	// --- Shared session state ---
	sessionStore := store.New(log)
	zapLog.Info("session created", zap.String("sessionId", sessionStore.SessionID()))

	// --- Backend gateway ---
	gw := gateway.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.APIKey,
		config.GetDuration(cfg.Backend.Timeout),
		log,
	).WithObservability(obs)

	// --- Workflow controllers ---
	forecastCfg := forecast.DefaultConfig()
	forecastCfg.Timeout = config.GetDuration(cfg.Backend.ForecastTimeout)
	forecastCfg.Policy = validation.Policy{
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxBytes:          cfg.Upload.MaxBytes,
	}
	forecastCtrl, err := forecast.NewController(forecastCfg, gw, sessionStore, log)
	if err != nil {
		zapLog.Fatal("forecast controller init failed", zap.Error(err))
	}

	imageCtrl, err := image.NewController(image.DefaultConfig(), gw, sessionStore, log)
	if err != nil {
		zapLog.Fatal("image controller init failed", zap.Error(err))
	}
	sloganCtrl, err := slogan.NewController(slogan.DefaultConfig(), gw, sessionStore, log)
	if err != nil {
		zapLog.Fatal("slogan controller init failed", zap.Error(err))
	}
	videoCtrl, err := videoqa.NewController(videoqa.DefaultConfig(), gw, sessionStore, log)
	if err != nil {
		zapLog.Fatal("video controller init failed", zap.Error(err))
	}

	// --- Metrics endpoint ---
	if cfg.Metrics.Enabled {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("metrics listening", zap.String("address", cfg.Metrics.ListenAddress))
			if err := http.ListenAndServe(cfg.Metrics.ListenAddress, metricsMux); err != nil {
				zapLog.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// --- UI-facing facade ---
	// Thin translation onto the controllers; all behavior lives below.
	mux := http.NewServeMux()

	mux.HandleFunc("POST /workflows/forecast", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, studioerrors.NewEmptyInputError("multipart form"))
			return
		}

		input := forecast.Input{
			Customers:       formCandidate(r, "customers_file"),
			CampaignHistory: formCandidate(r, "campaign_history_file"),
		}

		if err := forecastCtrl.Submit(r.Context(), input); err != nil {
			writeError(w, err)
			return
		}
		result, _ := forecastCtrl.Result()
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": result})
	})

	mux.HandleFunc("GET /workflows/image/prompt", func(w http.ResponseWriter, r *http.Request) {
		prompt, err := imageCtrl.UseForecastData()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
	})

	mux.HandleFunc("POST /workflows/image", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}

		if err := imageCtrl.Submit(r.Context(), body.Prompt); err != nil {
			writeError(w, err)
			return
		}
		imageURL, _ := imageCtrl.ImageURL()
		writeJSON(w, http.StatusOK, map[string]string{"image_url": imageURL})
	})

	mux.HandleFunc("GET /workflows/slogan/context", func(w http.ResponseWriter, r *http.Request) {
		campaignContext, err := sloganCtrl.UseForecastData()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"context": campaignContext})
	})

	mux.HandleFunc("POST /workflows/slogan", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Context string `json:"context"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}

		if err := sloganCtrl.Submit(r.Context(), body.Context); err != nil {
			writeError(w, err)
			return
		}
		slogans, _ := sloganCtrl.Slogans()
		writeJSON(w, http.StatusOK, map[string]interface{}{"slogans": slogans})
	})

	mux.HandleFunc("POST /workflows/video/ingest", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			YoutubeURL string `json:"youtube_url"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}

		if err := videoCtrl.SubmitIngest(r.Context(), body.YoutubeURL); err != nil {
			writeError(w, err)
			return
		}
		session, _ := videoCtrl.Session()
		writeJSON(w, http.StatusOK, map[string]interface{}{"video_info": session})
	})

	mux.HandleFunc("POST /workflows/video/query", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}

		if err := videoCtrl.SubmitQuery(r.Context(), body.Question); err != nil {
			writeError(w, err)
			return
		}
		answer, _ := videoCtrl.Answer()
		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	})

	mux.HandleFunc("GET /state", func(w http.ResponseWriter, r *http.Request) {
		state := map[string]interface{}{
			"busy": sessionStore.Busy(),
			"workflows": map[string]string{
				forecast.Workflow: forecastCtrl.State().String(),
				image.Workflow:    imageCtrl.State().String(),
				slogan.Workflow:   sloganCtrl.State().String(),
				videoqa.Workflow:  videoCtrl.State().String(),
			},
		}
		if result, ok := sessionStore.ForecastResult(); ok {
			state["forecast"] = result
		}
		if session, ok := videoCtrl.Session(); ok {
			state["video_session"] = session
		}
		writeJSON(w, http.StatusOK, state)
	})

	server := &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: mux,
	}

	go func() {
		zapLog.Info("studio listening", zap.String("address", cfg.Server.ListenAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}

	log.Info("session ended", map[string]interface{}{
		"sessionId": sessionStore.SessionID(),
	})
}

// formCandidate turns one multipart file field into a validation candidate.
// A missing field yields a zero candidate ("nothing selected").
func formCandidate(r *http.Request, field string) validation.Candidate {
	file, header, err := r.FormFile(field)
	if err != nil {
		return validation.Candidate{}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return validation.Candidate{}
	}

	return validation.Candidate{
		Name:    header.Filename,
		Size:    header.Size,
		Content: content,
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return studioerrors.NewEmptyInputError("request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the error taxonomy onto HTTP statuses for the UI.
func writeError(w http.ResponseWriter, err error) {
	studioErr := studioerrors.AsStudio(err)

	status := http.StatusInternalServerError
	switch {
	case studioerrors.IsValidation(err):
		status = http.StatusBadRequest
	case studioErr.Code == studioerrors.ErrCodeControllerBusy:
		status = http.StatusConflict
	case studioerrors.IsBackendDeclared(err):
		status = http.StatusBadGateway
	case studioErr.Code == studioerrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case studioerrors.IsTransport(err):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":     string(studioErr.Code),
			"category": studioerrors.GetErrorCategory(studioErr.Code),
			"message":  studioErr.Message,
			"details":  studioErr.Details,
		},
	})
}

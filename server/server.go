package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scribehq/recap/ai"
	"github.com/scribehq/recap/internal/profile"
	"github.com/scribehq/recap/mail"
	"github.com/scribehq/recap/server/router/web"
	"github.com/scribehq/recap/store"
)

type Server struct {
	e *echo.Echo

	Profile *profile.Profile
	Store   *store.Store
}

// NewServer wires the store, the summarization client, and the mail sender
// into the HTTP surface. All state lives in the store; the server itself
// carries none across requests.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	llmService, err := ai.NewService(&ai.Config{
		Provider:    profile.LLMProvider,
		Model:       profile.LLMModel,
		APIKey:      profile.LLMAPIKey,
		BaseURL:     profile.LLMBaseURL,
		Temperature: ai.SummaryTemperature,
		Timeout:     profile.LLMTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}

	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     profile.SMTPHost,
		Port:     profile.SMTPPort,
		Username: profile.SMTPUsername,
		Password: profile.SMTPPassword,
		From:     profile.SMTPFrom,
	})

	webService := web.NewWebService(profile, store, ai.NewSummarizer(llmService), sender)
	webService.RegisterRoutes(e)

	return &Server{
		e:       e,
		Profile: profile,
		Store:   store,
	}, nil
}

// Start begins serving in the background. Errors other than a clean
// shutdown are logged.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("recap stopped properly")
}

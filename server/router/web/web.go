// Package web serves the HTML surface: a submission form, a detail view,
// and the form posts that drive summarization, editing, and mailing.
package web

import (
	"context"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/scribehq/recap/internal/profile"
	"github.com/scribehq/recap/mail"
	"github.com/scribehq/recap/store"
)

// maxConcurrentSummaries bounds concurrent upstream completion calls so a
// burst of submissions cannot pile up against the provider.
const maxConcurrentSummaries = 4

// Summarizer produces a structured summary for an instruction + transcript.
type Summarizer interface {
	Summarize(ctx context.Context, instruction, transcript string) (string, error)
}

type WebService struct {
	Profile    *profile.Profile
	Store      *store.Store
	Summarizer Summarizer
	Sender     mail.Sender

	summarySemaphore *semaphore.Weighted
}

func NewWebService(profile *profile.Profile, store *store.Store, summarizer Summarizer, sender mail.Sender) *WebService {
	return &WebService{
		Profile:          profile,
		Store:            store,
		Summarizer:       summarizer,
		Sender:           sender,
		summarySemaphore: semaphore.NewWeighted(maxConcurrentSummaries),
	}
}

func (s *WebService) RegisterRoutes(e *echo.Echo) {
	e.Renderer = newRenderer()

	e.GET("/", s.index)
	e.POST("/generate", s.generate)
	e.GET("/summary/:id", s.view)
	e.POST("/summary/:id/update", s.update)
	e.POST("/summary/:id/send", s.send)
}

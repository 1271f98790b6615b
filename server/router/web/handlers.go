package web

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	netmail "net/mail"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scribehq/recap/internal/metrics"
	"github.com/scribehq/recap/mail"
	"github.com/scribehq/recap/store"
)

const mailSubject = "Meeting Summary"

func (s *WebService) index(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", indexData{})
}

// generate validates the submission, calls the completion API, persists the
// record, and redirects to the detail view. Nothing is persisted when
// validation or the upstream call fails.
func (s *WebService) generate(c echo.Context) error {
	ctx := c.Request().Context()

	instruction := strings.TrimSpace(c.FormValue("instruction"))
	transcript := strings.TrimSpace(c.FormValue("transcript_text"))

	// Pasted text wins over an uploaded file.
	if transcript == "" {
		if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
			content, err := readUploadedText(fileHeader)
			if err != nil {
				slog.Warn("web: failed to read uploaded transcript", "error", err)
			}
			transcript = strings.TrimSpace(content)
		}
	}

	if instruction == "" {
		return c.Render(http.StatusBadRequest, "index.html", indexData{
			Error: "Please provide an instruction.",
		})
	}
	if transcript == "" {
		return c.Render(http.StatusBadRequest, "index.html", indexData{
			Error: "Please upload a transcript or paste text.",
		})
	}

	summary, err := s.summarizeBounded(ctx, instruction, transcript)
	if err != nil {
		metrics.SummaryFailures.Inc()
		slog.Error("web: summarization failed", "error", err)
		return c.Render(http.StatusBadGateway, "index.html", indexData{
			Error: "Summarization failed, please try again.",
		})
	}

	created, err := s.Store.CreateSummary(ctx, &store.CreateSummary{
		Instruction: instruction,
		Transcript:  transcript,
		Summary:     summary,
		Recipients:  "",
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save summary").SetInternal(err)
	}

	metrics.SummariesGenerated.Inc()
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/summary/%d", created.ID))
}

func (s *WebService) view(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c.Param("id"))
	if err != nil {
		return s.renderNotFound(c)
	}

	rec, err := s.Store.GetSummary(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load summary").SetInternal(err)
	}
	if rec == nil {
		return s.renderNotFound(c)
	}

	return s.renderSummary(c, http.StatusOK, rec, "", false)
}

// update overwrites summary and recipients in full: submitting an empty
// recipients value clears any previously stored recipients. The summary
// field itself is required; a POST without it mutates nothing.
func (s *WebService) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c.Param("id"))
	if err != nil {
		return s.renderNotFound(c)
	}

	rec, err := s.Store.GetSummary(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load summary").SetInternal(err)
	}
	if rec == nil {
		return s.renderNotFound(c)
	}

	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form submission").SetInternal(err)
	}
	summaryValues, ok := params["summary"]
	if !ok {
		return s.renderSummary(c, http.StatusBadRequest, rec, "Summary is required.", false)
	}
	summary := summaryValues[0]
	recipients := c.FormValue("recipients")

	if _, err := s.Store.UpdateSummary(ctx, &store.UpdateSummary{
		ID:         id,
		Summary:    &summary,
		Recipients: &recipients,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update summary").SetInternal(err)
	}

	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/summary/%d", id))
}

// send emails the stored summary. The recipient is persisted only after
// confirmed delivery, so a relay failure never leaves the record claiming
// an address it was never sent to.
func (s *WebService) send(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c.Param("id"))
	if err != nil {
		return s.renderNotFound(c)
	}

	rec, err := s.Store.GetSummary(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load summary").SetInternal(err)
	}
	if rec == nil {
		return s.renderNotFound(c)
	}

	recipient := strings.TrimSpace(c.FormValue("recipient"))
	addresses := mail.SplitRecipients(recipient)
	if len(addresses) == 0 {
		return s.renderSummary(c, http.StatusBadRequest, rec, "Please enter recipient email.", false)
	}
	for _, address := range addresses {
		if _, err := netmail.ParseAddress(address); err != nil {
			return s.renderSummary(c, http.StatusBadRequest, rec,
				fmt.Sprintf("Invalid email address: %s", address), false)
		}
	}

	if err := s.Sender.Send(ctx, mail.Message{
		Subject:    mailSubject,
		Body:       rec.Summary,
		Recipients: addresses,
	}); err != nil {
		metrics.MailFailures.Inc()
		slog.Error("web: mail delivery failed", "id", id, "error", err)
		return s.renderSummary(c, http.StatusBadGateway, rec, "Failed to send email, please try again.", false)
	}
	metrics.MailsSent.Inc()

	updated, err := s.Store.UpdateSummary(ctx, &store.UpdateSummary{
		ID:         id,
		Recipients: &recipient,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save recipients").SetInternal(err)
	}

	return s.renderSummary(c, http.StatusOK, updated, "", true)
}

// summarizeBounded runs the upstream call under the concurrency cap. The
// permit is released via defer so a panicking summarizer (recovered at the
// middleware layer) cannot leak it.
func (s *WebService) summarizeBounded(ctx context.Context, instruction, transcript string) (string, error) {
	if err := s.summarySemaphore.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.summarySemaphore.Release(1)
	return s.Summarizer.Summarize(ctx, instruction, transcript)
}

func (s *WebService) renderSummary(c echo.Context, status int, rec *store.Summary, errMsg string, sent bool) error {
	return c.Render(status, "summary.html", summaryData{
		Rec:         rec,
		SummaryHTML: renderMarkdown(rec.Summary),
		Error:       errMsg,
		Sent:        sent,
	})
}

func (s *WebService) renderNotFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, "index.html", indexData{
		Error: "Summary not found.",
	})
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid id %q", raw)
	}
	return int32(id), nil
}

// readUploadedText reads an uploaded file as UTF-8 text, discarding invalid
// byte sequences rather than failing the whole request.
func readUploadedText(fileHeader *multipart.FileHeader) (string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return "", errors.Wrap(err, "failed to open uploaded file")
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", errors.Wrap(err, "failed to read uploaded file")
	}
	return strings.ToValidUTF8(string(raw), ""), nil
}

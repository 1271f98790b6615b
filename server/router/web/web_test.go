package web

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/recap/ai"
	"github.com/scribehq/recap/internal/profile"
	"github.com/scribehq/recap/mail"
	"github.com/scribehq/recap/store"
	"github.com/scribehq/recap/store/db/sqlite"
)

type stubSummarizer struct {
	gotInstruction string
	gotTranscript  string
	result         string
	err            error
	calls          int
}

func (s *stubSummarizer) Summarize(_ context.Context, instruction, transcript string) (string, error) {
	s.calls++
	s.gotInstruction = instruction
	s.gotTranscript = transcript
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

type stubSender struct {
	messages []mail.Message
	err      error
}

func (s *stubSender) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

type testEnv struct {
	e          *echo.Echo
	svc        *WebService
	store      *store.Store
	summarizer *stubSummarizer
	sender     *stubSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "recap_web_test.db"),
	}
	driver, err := sqlite.NewDB(testProfile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))

	storeInstance := store.New(driver, testProfile)
	summarizer := &stubSummarizer{result: "## Overview\nBudget was discussed."}
	sender := &stubSender{}

	e := echo.New()
	e.Use(middleware.Recover())
	svc := NewWebService(testProfile, storeInstance, summarizer, sender)
	svc.RegisterRoutes(e)

	return &testEnv{e: e, svc: svc, store: storeInstance, summarizer: summarizer, sender: sender}
}

func (env *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) postMultipart(t *testing.T, path string, fields map[string]string, fileContent []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileContent != nil {
		part, err := writer.CreateFormFile("file", "transcript.txt")
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) mustCreate(t *testing.T, recipients string) *store.Summary {
	t.Helper()

	created, err := env.store.CreateSummary(context.Background(), &store.CreateSummary{
		Instruction: "summarize",
		Transcript:  "Alice and Bob discussed Q3 budget.",
		Summary:     "## Overview\nBudget was discussed.",
		Recipients:  recipients,
	})
	require.NoError(t, err)
	return created
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/generate")
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm("/generate", url.Values{
		"instruction":     {"summarize"},
		"transcript_text": {"Alice and Bob discussed Q3 budget."},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get(echo.HeaderLocation)
	assert.Equal(t, "/summary/1", location)

	stored, err := env.store.GetSummary(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "summarize", env.summarizer.gotInstruction)
	assert.Equal(t, "summarize", stored.Instruction)
	assert.Equal(t, "Alice and Bob discussed Q3 budget.", stored.Transcript)
	assert.NotEmpty(t, stored.Summary)
	assert.Empty(t, stored.Recipients)

	// The detail view renders the fresh record.
	view := env.get(location)
	assert.Equal(t, http.StatusOK, view.Code)
	assert.Contains(t, view.Body.String(), "Budget was discussed.")
}

func TestGenerate_PastedTextWinsOverFile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postMultipart(t, "/generate", map[string]string{
		"instruction":     "summarize",
		"transcript_text": "hello",
	}, []byte("file content that must lose"))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "hello", env.summarizer.gotTranscript)
}

func TestGenerate_FileFallbackSanitizesUTF8(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postMultipart(t, "/generate", map[string]string{
		"instruction": "summarize",
	}, []byte("file \xff\xfecontent"))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "file content", env.summarizer.gotTranscript, "invalid bytes are discarded, not replaced")
}

func TestGenerate_MissingTranscript(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm("/generate", url.Values{
		"instruction": {"summarize"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload a transcript or paste text.")
	assert.Zero(t, env.summarizer.calls, "no upstream call without a transcript")

	stored, err := env.store.GetSummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, stored, "no record may be created")
}

func TestGenerate_MissingInstruction(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm("/generate", url.Values{
		"transcript_text": {"some transcript"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.summarizer.calls)
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.summarizer.err = fmt.Errorf("%w: connection refused", ai.ErrUpstream)

	rec := env.postForm("/generate", url.Values{
		"instruction":     {"summarize"},
		"transcript_text": {"some transcript"},
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summarization failed")

	stored, err := env.store.GetSummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, stored, "no record may be created on upstream failure")
}

type panickySummarizer struct{}

func (p *panickySummarizer) Summarize(context.Context, string, string) (string, error) {
	panic("summarizer blew up")
}

func TestGenerate_SummarizerPanicReleasesPermit(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Summarizer = &panickySummarizer{}

	form := url.Values{
		"instruction":     {"summarize"},
		"transcript_text": {"some transcript"},
	}

	// Burn through more panics than the concurrency cap; each must give
	// its permit back on the way out.
	for i := 0; i < maxConcurrentSummaries+1; i++ {
		rec := env.postForm("/generate", form)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}

	for i := 0; i < maxConcurrentSummaries; i++ {
		require.True(t, env.svc.summarySemaphore.TryAcquire(1), "permit %d leaked", i)
	}
	env.svc.summarySemaphore.Release(maxConcurrentSummaries)

	env.svc.Summarizer = env.summarizer
	rec := env.postForm("/generate", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestView_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/summary/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summary not found.")

	badID := env.get("/summary/not-a-number")
	assert.Equal(t, http.StatusNotFound, badID.Code)
}

func TestUpdate_OverwritesBothFields(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, "old@example.com")

	rec := env.postForm(fmt.Sprintf("/summary/%d/update", created.ID), url.Values{
		"summary":    {"X"},
		"recipients": {""},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, fmt.Sprintf("/summary/%d", created.ID), rec.Header().Get(echo.HeaderLocation))

	stored, err := env.store.GetSummary(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "X", stored.Summary)
	assert.Equal(t, "", stored.Recipients, "empty submission clears stored recipients")
}

func TestUpdate_MissingSummaryField(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, "keep@example.com")

	// A POST without the summary key must not clear the stored summary.
	rec := env.postForm(fmt.Sprintf("/summary/%d/update", created.ID), url.Values{
		"recipients": {"new@example.com"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summary is required.")

	stored, err := env.store.GetSummary(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, created.Summary, stored.Summary, "stored summary must be untouched")
	assert.Equal(t, "keep@example.com", stored.Recipients, "stored recipients must be untouched")
}

func TestUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm("/summary/99/update", url.Values{
		"summary":    {"X"},
		"recipients": {"a@example.com"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSend_EmptyRecipient(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, "keep@example.com")

	rec := env.postForm(fmt.Sprintf("/summary/%d/send", created.ID), url.Values{
		"recipient": {"  "},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter recipient email.")
	assert.Empty(t, env.sender.messages, "no delivery attempt without a recipient")

	stored, err := env.store.GetSummary(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep@example.com", stored.Recipients, "stored recipients must be untouched")
}

func TestSend_InvalidAddress(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, "")

	rec := env.postForm(fmt.Sprintf("/summary/%d/send", created.ID), url.Values{
		"recipient": {"not-an-address"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email address")
	assert.Empty(t, env.sender.messages)
}

func TestSend_Success(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, "")

	rec := env.postForm(fmt.Sprintf("/summary/%d/send", created.ID), url.Values{
		"recipient": {"a@x.com, , b@x.com"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summary sent to")

	require.Len(t, env.sender.messages, 1)
	msg := env.sender.messages[0]
	assert.Equal(t, "Meeting Summary", msg.Subject)
	assert.Equal(t, created.Summary, msg.Body)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, msg.Recipients, "blank entries are dropped")

	stored, err := env.store.GetSummary(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com, , b@x.com", stored.Recipients, "recipient persisted after confirmed delivery")
}

func TestSend_DeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreate(t, "")
	env.sender.err = fmt.Errorf("%w: relay rejected", mail.ErrDelivery)

	rec := env.postForm(fmt.Sprintf("/summary/%d/send", created.ID), url.Values{
		"recipient": {"a@x.com"},
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to send email")
	assert.NotContains(t, rec.Body.String(), "Summary sent to")

	stored, err := env.store.GetSummary(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "", stored.Recipients, "recipient must not be persisted when delivery fails")
}

func TestSend_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm("/summary/99/send", url.Values{
		"recipient": {"a@x.com"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package handlers_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiworkspace/workspace-backend/internal/api"
	"github.com/aiworkspace/workspace-backend/internal/artifacts"
	"github.com/aiworkspace/workspace-backend/internal/config"
	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

// stubLLM satisfies groq.Completer and records every completion call.
type stubLLM struct {
	completeFn   func(req groq.CompletionRequest) (string, error)
	transcribeFn func(filePath, language string) (string, error)
	calls        []groq.CompletionRequest
}

func (s *stubLLM) Complete(_ context.Context, req groq.CompletionRequest) (string, error) {
	s.calls = append(s.calls, req)
	if s.completeFn == nil {
		return "", groq.ErrNoAPIKey
	}
	return s.completeFn(req)
}

func (s *stubLLM) Transcribe(_ context.Context, filePath, language string) (string, error) {
	if s.transcribeFn == nil {
		return "", groq.ErrNoAPIKey
	}
	return s.transcribeFn(filePath, language)
}

func newTestApp(t *testing.T, llm groq.Completer) (*fiber.App, *services.Services) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		Admin: config.AdminConfig{Username: "Admin", Password: "admin123"},
	}

	store, err := artifacts.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	svc := services.New(cfg, logger, llm, store, stats.NewCollector(logger), session.New())

	app := fiber.New()
	api.SetupRoutes(app, svc)
	return app, svc
}

func postForm(t *testing.T, app *fiber.App, path string, form map[string]string, cookie string) *http.Response {
	t.Helper()
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, cookie)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c.Name + "=" + c.Value
		}
	}
	return ""
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(body))
}

func TestAuthFlow(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	// Fresh session is not admin
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/check-auth", nil))
	require.NoError(t, err)
	assert.Equal(t, false, decodeJSON(t, resp)["is_admin"])

	// Wrong credentials are rejected and leave no admin session
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"username":"Admin","password":"nope"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid Credentials", body["error"])

	// Correct credentials flip the flag for that session
	req = httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"username":"Admin","password":"admin123"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotEmpty(t, cookie)
	assert.Equal(t, true, decodeJSON(t, resp)["success"])

	req = httptest.NewRequest(fiber.MethodGet, "/check-auth", nil)
	req.Header.Set(fiber.HeaderCookie, cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, true, decodeJSON(t, resp)["is_admin"])

	// Logout clears it again
	resp = postForm(t, app, "/logout", nil, cookie)
	assert.Equal(t, true, decodeJSON(t, resp)["success"])

	req = httptest.NewRequest(fiber.MethodGet, "/check-auth", nil)
	req.Header.Set(fiber.HeaderCookie, cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, false, decodeJSON(t, resp)["is_admin"])
}

func TestChat(t *testing.T) {
	llm := &stubLLM{completeFn: func(req groq.CompletionRequest) (string, error) {
		return "Hi there", nil
	}}
	app, _ := newTestApp(t, llm)

	resp := postForm(t, app, "/chat", map[string]string{"message": "Hello"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Hi there", body["response"])

	// The call carried the persona and the new user turn
	require.Len(t, llm.calls, 1)
	msgs := llm.calls[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, groq.RoleSystem, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.InDelta(t, 0.7, llm.calls[0].Temperature, 0.001)
}

func TestChatEmptyMessage(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	resp := postForm(t, app, "/chat", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "Empty message", body["error"])
}

func TestChatProviderErrorSurfaces(t *testing.T) {
	llm := &stubLLM{completeFn: func(groq.CompletionRequest) (string, error) {
		return "", errors.New("rate limit hit")
	}}
	app, _ := newTestApp(t, llm)

	resp := postForm(t, app, "/chat", map[string]string{"message": "Hello"}, "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "rate limit hit", body["error"])
}

func TestChatHistoryCappedAtSixEntries(t *testing.T) {
	llm := &stubLLM{completeFn: func(req groq.CompletionRequest) (string, error) {
		return "reply", nil
	}}
	app, _ := newTestApp(t, llm)

	resp := postForm(t, app, "/chat", map[string]string{"message": "turn 1"}, "")
	cookie := sessionCookie(resp)
	require.NotEmpty(t, cookie)
	for i := 2; i <= 4; i++ {
		postForm(t, app, "/chat", map[string]string{"message": fmt.Sprintf("turn %d", i)}, cookie)
	}

	// After 4 exchanges the stored history is 6 entries, so the 5th
	// call sees: system + 6 history + 1 new = 8 messages
	postForm(t, app, "/chat", map[string]string{"message": "turn 5"}, cookie)
	require.Len(t, llm.calls, 5)
	last := llm.calls[4].Messages
	assert.Len(t, last, 8)
	// Oldest retained history entry is the user turn of exchange 2
	assert.Equal(t, "turn 2", last[1].Content)
	assert.Equal(t, "turn 5", last[7].Content)
}

func TestGenerateMinutesFallback(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{}) // no key configured

	resp := postForm(t, app, "/generate-minutes", map[string]string{"notes": "we met"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "AI Service Busy", body["minutes"])
}

func TestGenerateEmailDefaults(t *testing.T) {
	llm := &stubLLM{completeFn: func(req groq.CompletionRequest) (string, error) {
		return "Dear Team", nil
	}}
	app, _ := newTestApp(t, llm)

	resp := postForm(t, app, "/generate-email", nil, "")
	body := decodeJSON(t, resp)
	assert.Equal(t, "Dear Team", body["email_content"])

	require.Len(t, llm.calls, 1)
	assert.Contains(t, llm.calls[0].Messages[1].Content, "Write an email to Team about: Update")
}

func TestTranslateFallbackString(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	resp := postForm(t, app, "/translate", map[string]string{"text": "hola"}, "")
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Error", body["translation"])
}

const quizFragment = `<div class='question-box'><h3 class='q-title'>1. Which ocean is the largest?</h3>` +
	`<ul class='options-list'><li>A) Atlantic</li><li>B) Pacific</li><li>C) Indian</li><li>D) Arctic</li></ul></div>` +
	`<h4>Answer Key</h4><table class='answer-key'><tr><th>Q</th><th>A</th></tr><tr><td>1</td><td>B</td></tr></table>`

func TestGenerateQuiz(t *testing.T) {
	llm := &stubLLM{completeFn: func(req groq.CompletionRequest) (string, error) {
		return "```html\n" + quizFragment + "\n```", nil
	}}
	app, svc := newTestApp(t, llm)

	resp := postForm(t, app, "/generate-quiz", map[string]string{"topic": "Oceans", "count": "3"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, quizFragment, body["quiz"])

	fileURL, _ := body["file_url"].(string)
	assert.Regexp(t, regexp.MustCompile(`^/static/quiz_[0-9a-f]{8}\.pdf$`), fileURL)

	pdfPath := svc.Store.Path(filepath.Base(fileURL))
	info, err := os.Stat(pdfPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerateQuizAIFailure(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	resp := postForm(t, app, "/generate-quiz", map[string]string{"topic": "Oceans"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "AI Failed", body["error"])
}

func TestMakePPT(t *testing.T) {
	llm := &stubLLM{completeFn: func(req groq.CompletionRequest) (string, error) {
		return "SLIDE: A\nPOINT: x\nSLIDE: B\nPOINT: y", nil
	}}
	app, svc := newTestApp(t, llm)

	resp := postForm(t, app, "/make-ppt", map[string]string{"topic": "Go"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])

	fileURL, _ := body["file_url"].(string)
	assert.Regexp(t, regexp.MustCompile(`^/static/presentation_[0-9a-f]{8}\.pptx$`), fileURL)

	deckPath := svc.Store.Path(filepath.Base(fileURL))
	zr, err := zip.OpenReader(deckPath)
	require.NoError(t, err)
	defer zr.Close()

	slideRe := regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)
	parts := map[string]string{}
	for _, f := range zr.File {
		if !slideRe.MatchString(f.Name) {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(content)
	}
	require.Len(t, parts, 2)
	assert.Contains(t, parts["ppt/slides/slide1.xml"], "<a:t>A</a:t>")
	assert.Contains(t, parts["ppt/slides/slide1.xml"], "<a:t>x</a:t>")
	assert.Contains(t, parts["ppt/slides/slide2.xml"], "<a:t>B</a:t>")
	assert.Contains(t, parts["ppt/slides/slide2.xml"], "<a:t>y</a:t>")
}

func TestTextToPDF(t *testing.T) {
	app, svc := newTestApp(t, &stubLLM{})

	resp := postForm(t, app, "/text-to-pdf", map[string]string{"html_content": "<p>hello</p>"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])

	fileURL, _ := body["file_url"].(string)
	assert.Regexp(t, regexp.MustCompile(`^/static/doc_[0-9a-f]{8}\.pdf$`), fileURL)
	_, err := os.Stat(svc.Store.Path(filepath.Base(fileURL)))
	assert.NoError(t, err)
}

func TestTextToAudioMissingText(t *testing.T) {
	app, svc := newTestApp(t, &stubLLM{})

	resp := postForm(t, app, "/text-to-audio", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "No text", body["error"])

	// The usage counter still counted the attempt
	assert.Equal(t, int64(1), svc.Stats.Get(stats.CategoryAudioGen))
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 6), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func postUpload(t *testing.T, app *fiber.App, path string, fields map[string]string, fileField, fileName string, fileData []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = fw.Write(fileData)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func TestConvertFile(t *testing.T) {
	app, svc := newTestApp(t, &stubLLM{})

	resp := postUpload(t, app, "/convert-file", map[string]string{"format": "JPG"}, "file", "pic.png", pngUpload(t))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])

	fileURL, _ := body["file_url"].(string)
	assert.Regexp(t, regexp.MustCompile(`^/static/conv_[0-9a-f]{8}\.jpeg$`), fileURL)

	data, err := os.ReadFile(svc.Store.Path(filepath.Base(fileURL)))
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestConvertFileMissingFile(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	resp := postForm(t, app, "/convert-file", map[string]string{"format": "PNG"}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file", decodeJSON(t, resp)["error"])
}

func TestCompressImage(t *testing.T) {
	app, svc := newTestApp(t, &stubLLM{})

	resp := postUpload(t, app, "/compress-image", nil, "file", "pic.png", pngUpload(t))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])

	fileURL, _ := body["file_url"].(string)
	assert.Regexp(t, regexp.MustCompile(`^/static/comp_[0-9a-f]{8}\.jpg$`), fileURL)

	data, err := os.ReadFile(svc.Store.Path(filepath.Base(fileURL)))
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestStatsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	// Drive one counted request first
	postForm(t, app, "/generate-minutes", map[string]string{"notes": "x"}, "")

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/stats", nil))
	require.NoError(t, err)
	body := decodeJSON(t, resp)

	// Anonymous callers get zeroed telemetry but real usage counts
	assert.Equal(t, float64(0), body["cpu"])
	assert.Equal(t, float64(0), body["ram"])
	usage, ok := body["usage"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), usage["text_gen"])
	assert.Len(t, usage, 10)
}

func TestDownloadReport(t *testing.T) {
	app, _ := newTestApp(t, &stubLLM{})

	// Anonymous callers are rejected with plain text
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/download-report", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Unauthorized", string(raw))

	// Admin gets the attachment
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"username":"Admin","password":"admin123"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	loginResp, err := app.Test(req)
	require.NoError(t, err)
	cookie := sessionCookie(loginResp)
	loginResp.Body.Close()

	req = httptest.NewRequest(fiber.MethodGet, "/download-report", nil)
	req.Header.Set(fiber.HeaderCookie, cookie)
	resp, err = app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "System_Report.txt")
	report, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(report), "AI WORKSPACE SYSTEM REPORT")
	assert.Contains(t, string(report), "TOTAL OPERATIONS")
}

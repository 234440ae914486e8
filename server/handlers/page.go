package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/middleware"
	"go.uber.org/zap"
)

//go:embed templates/page.html
var pageFS embed.FS

//go:embed static
var staticFS embed.FS

// PageData is rendered into the form page.
type PageData struct {
	Symptoms string
	Age      string
	History  string
	Result   string
	Error    string
}

// PageHandler serves the HTML form. Submissions are forwarded to the triage
// endpoint over HTTP so the page goes through the same middleware chain as
// any other client.
type PageHandler struct {
	tmpl      *template.Template
	client    *http.Client
	triageURL string
	logger    *zap.Logger
}

// NewPageHandler creates a page handler posting to triageURL with client.
func NewPageHandler(triageURL string, client *http.Client, logger *zap.Logger) (*PageHandler, error) {
	if triageURL == "" {
		return nil, fmt.Errorf("triage URL is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	tmpl, err := template.ParseFS(pageFS, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &PageHandler{tmpl: tmpl, client: client, triageURL: triageURL, logger: logger}, nil
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger, requestID := requestLogger(h.logger, r)

	if r.Method != http.MethodPost {
		h.render(w, logger, requestID, PageData{})
		return
	}

	data := PageData{
		Symptoms: strings.TrimSpace(r.PostFormValue("symptoms")),
		Age:      strings.TrimSpace(r.PostFormValue("age")),
		History:  strings.TrimSpace(r.PostFormValue("history")),
	}
	if data.Symptoms == "" || data.Age == "" {
		data.Error = MsgTriageIncomplete
		h.render(w, logger, requestID, data)
		return
	}

	result, err := h.requestTriage(r, requestID, data)
	if err != nil {
		logger.Warn("Triage request from page failed", zap.Error(err))
		data.Error = err.Error()
	} else {
		data.Result = result
	}
	h.render(w, logger, requestID, data)
}

// requestTriage posts the form to the triage endpoint. An error body from
// the endpoint is returned as an error carrying its message.
func (h *PageHandler) requestTriage(r *http.Request, requestID string, data PageData) (string, error) {
	body, err := json.Marshal(map[string]string{
		"symptoms": data.Symptoms,
		"age":      data.Age,
		"history":  data.History,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.triageURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}
	// the triage route limits the browser, not this process
	req.Header.Set(middleware.ForwardedForHeader, middleware.ClientIP(r))

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		TriageResult string `json:"triage_result"`
		Error        string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("unreadable triage response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("triage failed with status %d", resp.StatusCode)
	}
	return out.TriageResult, nil
}

func (h *PageHandler) render(w http.ResponseWriter, logger *zap.Logger, requestID string, data PageData) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		fail(w, logger, errors.NewInternalError(requestID, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// StaticHandler serves the page assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

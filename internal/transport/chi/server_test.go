package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/domain"
	healthuc "github.com/emmystark/Rag-chatbot/internal/usecase/health"
)

// --- Mocks ---

type mockIngestor struct {
	chunks    int
	addErr    error
	clearErr  error
	lastPath  string
	clearHits int
}

func (m *mockIngestor) AddDocument(_ context.Context, path string) (int, error) {
	m.lastPath = path
	return m.chunks, m.addErr
}

func (m *mockIngestor) Clear(_ context.Context) error {
	m.clearHits++
	return m.clearErr
}

type mockAnswerer struct {
	answer       domain.Answer
	lastQuestion string
	lastImage    []byte
}

func (m *mockAnswerer) QueryText(_ context.Context, question string) domain.Answer {
	m.lastQuestion = question
	return m.answer
}

func (m *mockAnswerer) QueryVision(_ context.Context, question string, image []byte) domain.Answer {
	m.lastQuestion = question
	m.lastImage = image
	return m.answer
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func supportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".docx":
		return true
	}
	return false
}

func newTestServer(t *testing.T, ingest *mockIngestor, answer *mockAnswerer) *Server {
	t.Helper()
	return NewServer(ingest, answer,
		&mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		Config{UploadDir: t.TempDir(), Supported: supportedExt},
		zap.NewNop(),
	)
}

func multipartBody(t *testing.T, fileField, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// --- Tests ---

func TestAsk(t *testing.T) {
	answer := &mockAnswerer{answer: domain.Answer{
		Text:       "Paris.",
		Sources:    []domain.SourceRef{{Excerpt: "x", SourceName: "facts.txt", PageNumber: 1}},
		Confidence: 0.9,
		Kind:       domain.AnswerText,
	}}
	srv := newTestServer(t, &mockIngestor{}, answer)

	body := strings.NewReader(`{"question": "What is the capital of France?"}`)
	req := httptest.NewRequest("POST", "/ask", body)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got domain.Answer
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Text != "Paris." || got.Confidence != 0.9 {
		t.Errorf("unexpected answer %+v", got)
	}
	if answer.lastQuestion != "What is the capital of France?" {
		t.Errorf("question not forwarded: %q", answer.lastQuestion)
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	srv := newTestServer(t, &mockIngestor{}, &mockAnswerer{})

	req := httptest.NewRequest("POST", "/ask", strings.NewReader(`{"question": ""}`))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUpload(t *testing.T) {
	ingest := &mockIngestor{chunks: 4}
	srv := newTestServer(t, ingest, &mockAnswerer{})

	body, contentType := multipartBody(t, "file", "notes.txt", []byte("hello"), nil)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Chunks != 4 || resp.Filename != "notes.txt" {
		t.Errorf("unexpected response %+v", resp)
	}
	if ingest.lastPath == "" {
		t.Error("ingestion was not invoked")
	}
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	ingest := &mockIngestor{}
	srv := newTestServer(t, ingest, &mockAnswerer{})

	body, contentType := multipartBody(t, "file", "photo.png", []byte{1, 2, 3}, nil)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if ingest.lastPath != "" {
		t.Error("unsupported file must be rejected before ingestion")
	}
}

func TestUpload_LoadFailureIs422(t *testing.T) {
	ingest := &mockIngestor{addErr: domain.NewLoadError("/tmp/x.pdf", context.DeadlineExceeded)}
	srv := newTestServer(t, ingest, &mockAnswerer{})

	body, contentType := multipartBody(t, "file", "x.pdf", []byte("not a pdf"), nil)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
}

func TestVision(t *testing.T) {
	answer := &mockAnswerer{answer: domain.Answer{
		Text:       "Image analysis:\nA blank square.\n\nDocument context:\nI don't know.",
		Sources:    []domain.SourceRef{},
		Confidence: 0.95,
		Kind:       domain.AnswerVisionText,
	}}
	srv := newTestServer(t, &mockIngestor{}, answer)

	image := []byte{0x89, 0x50, 0x4e, 0x47}
	body, contentType := multipartBody(t, "image", "pixel.png", image,
		map[string]string{"question": "What does this show?"})
	req := httptest.NewRequest("POST", "/vision", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if answer.lastQuestion != "What does this show?" {
		t.Errorf("question not forwarded: %q", answer.lastQuestion)
	}
	if !bytes.Equal(answer.lastImage, image) {
		t.Error("image bytes not forwarded")
	}
	var got domain.Answer
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Kind != domain.AnswerVisionText {
		t.Errorf("kind = %q, want vision_text", got.Kind)
	}
}

func TestClear(t *testing.T) {
	ingest := &mockIngestor{}
	srv := newTestServer(t, ingest, &mockAnswerer{})

	req := httptest.NewRequest("DELETE", "/clear", http.NoBody)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ingest.clearHits != 1 {
		t.Errorf("clear hits = %d, want 1", ingest.clearHits)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &mockIngestor{}, &mockAnswerer{})

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv := NewServer(&mockIngestor{}, &mockAnswerer{},
		&mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		Config{
			UploadDir:   t.TempDir(),
			Supported:   supportedExt,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		zap.NewNop(),
	)

	req := httptest.NewRequest("OPTIONS", "/ask", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	// Unknown origin gets no CORS headers.
	req = httptest.NewRequest("OPTIONS", "/ask", http.NoBody)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q for unknown origin", got)
	}
}

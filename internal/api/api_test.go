package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pulseaid/pulseaid/internal/api"
	"github.com/pulseaid/pulseaid/internal/app"
	"github.com/pulseaid/pulseaid/internal/catalog"
	"github.com/pulseaid/pulseaid/internal/config"
	"github.com/pulseaid/pulseaid/internal/docsum"
	"github.com/pulseaid/pulseaid/internal/questionnaire"
	"github.com/pulseaid/pulseaid/internal/tracker"
	inputrelay "github.com/pulseaid/pulseaid/pkg/speech/input/relay"
	outputrelay "github.com/pulseaid/pulseaid/pkg/speech/output/relay"
)

// testEnv bundles a running HTTP server with its application.
type testEnv struct {
	srv        *httptest.Server
	app        *app.App
	speaker    *outputrelay.Speaker
	recognizer *inputrelay.Recognizer
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogInfo},
		Questionnaire: config.QuestionnaireConfig{
			FreeTextTimeout:   500 * time.Millisecond,
			StructuredTimeout: 700 * time.Millisecond,
			SkipAckTimeout:    50 * time.Millisecond,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	speaker := outputrelay.New()
	recognizer := inputrelay.New()

	a, err := app.New(cfg, &app.Providers{Speaker: speaker, Recognizer: recognizer},
		app.WithSummariser(docsum.New(docsum.WithDelay(time.Millisecond))),
	)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}

	handler := api.NewRouter(api.Config{
		App:             a,
		RelaySpeaker:    speaker,
		RelayRecognizer: recognizer,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		a.Sessions().CloseAll()
	})

	return &testEnv{srv: srv, app: a, speaker: speaker, recognizer: recognizer}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func (e *testEnv) post(t *testing.T, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	} else {
		buf.WriteString("{}")
	}
	resp, err := http.Post(e.srv.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

// createSession creates a session over the API and returns its ID.
func (e *testEnv) createSession(t *testing.T, variant string) string {
	t.Helper()
	resp, body := e.post(t, "/api/v1/sessions", map[string]string{"variant": variant})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d, body %s", resp.StatusCode, body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("create session returned empty ID")
	}
	return created.ID
}

// snapshot fetches the session's current state.
func (e *testEnv) snapshot(t *testing.T, id string) questionnaire.Snapshot {
	t.Helper()
	resp, body := e.get(t, "/api/v1/sessions/"+id)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get session: status %d, body %s", resp.StatusCode, body)
	}
	var sr struct {
		Snapshot questionnaire.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	return sr.Snapshot
}

// waitListening polls until the session is listening at question index want.
func (e *testEnv) waitListening(t *testing.T, id string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := e.snapshot(t, id)
		if snap.Status == questionnaire.StatusListening && snap.Index == want {
			return
		}
		if snap.Status == questionnaire.StatusDone {
			t.Fatalf("session finished before reaching question %d", want)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session never reached listening at question %d", want)
}

// driveAnswer types text into the current question and forces resolution.
func (e *testEnv) driveAnswer(t *testing.T, id string, index int, text string) {
	t.Helper()
	e.waitListening(t, id, index)
	if resp, body := e.post(t, "/api/v1/sessions/"+id+"/input", map[string]string{"text": text}); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("input: status %d, body %s", resp.StatusCode, body)
	}
	if resp, body := e.post(t, "/api/v1/sessions/"+id+"/submit", nil); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit: status %d, body %s", resp.StatusCode, body)
	}
}

// waitDone polls until the session reports completion.
func (e *testEnv) waitDone(t *testing.T, id string) questionnaire.Snapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		snap := e.snapshot(t, id)
		if snap.Status == questionnaire.StatusDone {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session never finished")
	return questionnaire.Snapshot{}
}

func TestVariantsEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/api/v1/variants")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, body %s", resp.StatusCode, body)
	}

	var variants []questionnaire.Variant
	if err := json.Unmarshal(body, &variants); err != nil {
		t.Fatalf("decode variants: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(variants))
	}
	byName := make(map[string]questionnaire.Variant)
	for _, v := range variants {
		byName[v.Name] = v
	}
	if len(byName["hospital"].Questions) != 10 {
		t.Errorf("hospital questions: got %d, want 10", len(byName["hospital"].Questions))
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	id := env.createSession(t, "general")

	snap := env.snapshot(t, id)
	if snap.Variant != "general" {
		t.Errorf("variant: got %q, want %q", snap.Variant, "general")
	}

	req, err := http.NewRequest(http.MethodDelete, env.srv.URL+"/api/v1/sessions/"+id, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	if resp, _ := env.get(t, "/api/v1/sessions/"+id); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestCreateSessionUnknownVariant(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, _ := env.post(t, "/api/v1/sessions", map[string]string{"variant": "dental"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestDriveDispatchToReport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	id := env.createSession(t, "dispatch")

	answers := []string{"12 Jubilee Hills", "Apollo Hospital", "chest pain", "98480 12345"}
	for i, text := range answers {
		env.driveAnswer(t, id, i, text)
	}

	snap := env.waitDone(t, id)
	if len(snap.Answers) != 4 {
		t.Fatalf("answers: got %d, want 4", len(snap.Answers))
	}
	for i, want := range answers {
		if snap.Answers[i] != want {
			t.Errorf("answer %d: got %q, want %q", i, snap.Answers[i], want)
		}
	}

	resp, body := env.get(t, "/api/v1/sessions/"+id+"/report")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status %d, body %s", resp.StatusCode, body)
	}
	var rep struct {
		Report   string `json:"report"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(body, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !strings.Contains(rep.Report, "Ambulance Dispatch Report") {
		t.Errorf("report missing heading: %q", rep.Report)
	}
	if !strings.Contains(rep.Report, "Apollo Hospital") {
		t.Errorf("report missing destination: %q", rep.Report)
	}
	if rep.Language != "english" {
		t.Errorf("language: got %q, want %q", rep.Language, "english")
	}
}

func TestReportNotReady(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Questionnaire.FreeTextTimeout = 10 * time.Second
	})

	id := env.createSession(t, "general")

	resp, _ := env.get(t, "/api/v1/sessions/"+id+"/report")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp, _ = env.get(t, "/api/v1/sessions/"+id+"/report.pdf")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("pdf status: got %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestReportTranslation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	id := env.createSession(t, "dispatch")
	for i, text := range []string{"a", "b", "c", "d"} {
		env.driveAnswer(t, id, i, text)
	}
	env.waitDone(t, id)

	resp, body := env.get(t, "/api/v1/sessions/"+id+"/report?lang=te")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, body %s", resp.StatusCode, body)
	}
	var rep struct {
		Report   string `json:"report"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(body, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Language != "telugu" {
		t.Errorf("language: got %q, want %q", rep.Language, "telugu")
	}
	if strings.Contains(rep.Report, "Ambulance Dispatch Report") {
		t.Error("scaffolding was not translated")
	}

	resp, _ = env.get(t, "/api/v1/sessions/"+id+"/report?lang=klingon")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unsupported language status: got %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

// pdfFontAvailable mirrors the renderer's font discovery so the PDF test can
// skip on machines without DejaVu installed.
func pdfFontAvailable() bool {
	for _, p := range []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
	} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func TestReportPDF(t *testing.T) {
	t.Parallel()
	if !pdfFontAvailable() {
		t.Skip("DejaVuSans.ttf not installed")
	}
	env := newTestEnv(t, nil)

	id := env.createSession(t, "dispatch")
	for i, text := range []string{"a", "b", "c", "d"} {
		env.driveAnswer(t, id, i, text)
	}
	env.waitDone(t, id)

	resp, body := env.get(t, "/api/v1/sessions/"+id+"/report.pdf")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type: got %q, want application/pdf", ct)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Error("body does not look like a PDF")
	}
}

func TestResetEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	id := env.createSession(t, "dispatch")
	env.driveAnswer(t, id, 0, "old answer")

	resp, body := env.post(t, "/api/v1/sessions/"+id+"/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status %d, body %s", resp.StatusCode, body)
	}

	env.waitListening(t, id, 0)
	snap := env.snapshot(t, id)
	if len(snap.Answers) != 0 {
		t.Errorf("answers after reset: got %v, want empty", snap.Answers)
	}
}

func TestSkipEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Questionnaire.FreeTextTimeout = 10 * time.Second
	})

	id := env.createSession(t, "dispatch")
	env.waitListening(t, id, 0)

	resp, body := env.post(t, "/api/v1/sessions/"+id+"/skip", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("skip status %d, body %s", resp.StatusCode, body)
	}

	env.waitListening(t, id, 1)
	snap := env.snapshot(t, id)
	if snap.Answers[0] != questionnaire.SkippedAnswer {
		t.Errorf("answer 0: got %q, want %q", snap.Answers[0], questionnaire.SkippedAnswer)
	}
}

func TestSummariseEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.post(t, "/api/v1/summarise", map[string]string{"filename": "report.pdf"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, body %s", resp.StatusCode, body)
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !strings.Contains(out.Summary, "Patient Report Summary") {
		t.Errorf("summary missing heading: %q", out.Summary)
	}

	resp, _ = env.post(t, "/api/v1/summarise", map[string]string{"filename": "virus.exe"})
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("exe status: got %d, want %d", resp.StatusCode, http.StatusUnsupportedMediaType)
	}

	resp, _ = env.post(t, "/api/v1/summarise", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty filename status: got %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestTrackerEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		resp, _ := env.get(t, "/api/v1/tracker")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, func(cfg *config.Config) {
			cfg.Tracker.Enabled = true
			cfg.Tracker.Tick = 10 * time.Millisecond
		})
		resp, body := env.get(t, "/api/v1/tracker")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d, body %s", resp.StatusCode, body)
		}
		var u tracker.Update
		if err := json.Unmarshal(body, &u); err != nil {
			t.Fatalf("decode update: %v", err)
		}
		if u.Hospital.Address == "" {
			t.Error("hospital address is empty")
		}
	})
}

func TestCatalogEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/api/v1/catalog/categories")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("categories status %d", resp.StatusCode)
	}
	var cats []catalog.Category
	if err := json.Unmarshal(body, &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != 9 {
		t.Errorf("categories: got %d, want 9", len(cats))
	}

	resp, body = env.get(t, "/api/v1/catalog/products?q=vitamine")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("products status %d", resp.StatusCode)
	}
	var products []catalog.Product
	if err := json.Unmarshal(body, &products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("fuzzy product search returned nothing")
	}
	if !strings.Contains(products[0].Name, "Vitamin") {
		t.Errorf("top product: got %q, want a Vitamin match", products[0].Name)
	}

	resp, body = env.get(t, "/api/v1/catalog/hospitals?q=apollo")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("hospitals status %d", resp.StatusCode)
	}
	var hospitals []catalog.Hospital
	if err := json.Unmarshal(body, &hospitals); err != nil {
		t.Fatalf("decode hospitals: %v", err)
	}
	if len(hospitals) == 0 || !strings.Contains(hospitals[0].Name, "Apollo") {
		t.Errorf("hospital search: got %v, want Apollo first", hospitals)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, _ := env.get(t, path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestInputValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Questionnaire.FreeTextTimeout = 10 * time.Second
	})

	id := env.createSession(t, "general")
	env.waitListening(t, id, 0)

	cases := []struct {
		name    string
		path    string
		payload any
	}{
		{"empty text", "/input", map[string]string{"text": ""}},
		{"empty label", "/choice", map[string]string{"label": ""}},
		{"unknown field", "/input", map[string]string{"txet": "typo"}},
	}
	for _, tc := range cases {
		resp, _ := env.post(t, fmt.Sprintf("/api/v1/sessions/%s%s", id, tc.path), tc.payload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: got %d, want %d", tc.name, resp.StatusCode, http.StatusBadRequest)
		}
	}
}

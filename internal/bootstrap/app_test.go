package bootstrap_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"reportcard-analyzer/internal/analysis"
	"reportcard-analyzer/internal/bootstrap"
	"reportcard-analyzer/internal/shared/config"
	"reportcard-analyzer/internal/shared/telemetry"
)

func testConfig(t *testing.T, endpoint string) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		AnalyzeEndpoint: endpoint,
		InputMode:       config.ModeTexts,
		RequestTimeout:  5 * time.Second,
		MaxUploadBytes:  1 << 20,
		SubmitRate:      1,
		SubmitBurst:     5,
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
	}
}

func TestBuildServesTextsSubmission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"strengths":["Reading"],"areas_of_growth":["Spelling"]}`)
	}))
	defer upstream.Close()

	app, err := bootstrap.Build(context.Background(), testConfig(t, upstream.URL+"/analyze"))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	if app.Endpoint != upstream.URL+"/analyze" {
		t.Fatalf("unexpected endpoint %s", app.Endpoint)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/view/texts/0", strings.NewReader(`{"value":"Great term"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("set text expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/view/submit", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("submit expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var st analysis.State
	if err := json.Unmarshal(resp.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Feedback == nil || len(st.Feedback.AreasForImprovement) != 1 || st.Feedback.AreasForImprovement[0] != "Spelling" {
		t.Fatalf("unexpected feedback %+v", st.Feedback)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestBuildHealthReportsMode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(context.Background(), testConfig(t, "http://127.0.0.1:5000/analyze"))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["ok"] != true || payload["mode"] != "texts" {
		t.Fatalf("unexpected health payload %v", payload)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "unknown mode", mutate: func(c *config.Config) { c.InputMode = "audio" }},
		{name: "relative endpoint without base", mutate: func(c *config.Config) { c.AnalyzeEndpoint = "/analyze" }},
		{name: "s3 without bucket", mutate: func(c *config.Config) { c.ObjectStoreType = "s3" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t, "http://127.0.0.1:5000/analyze")
			tc.mutate(&cfg)
			if _, err := bootstrap.Build(context.Background(), cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildClientResolvesRelativeEndpoint(t *testing.T) {
	cfg := testConfig(t, "/analyze")
	cfg.AnalyzeBaseURL = "http://analysis.internal:5000/"
	cfg.InputMode = config.ModeFile

	client, enc, err := bootstrap.BuildClient(cfg)
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	if client.Endpoint() != "http://analysis.internal:5000/analyze" {
		t.Fatalf("unexpected endpoint %s", client.Endpoint())
	}
	if enc.Mode() != analysis.ModeFile {
		t.Fatalf("unexpected mode %s", enc.Mode())
	}
}

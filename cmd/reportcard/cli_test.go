package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"reportcard-analyzer/internal/analysis"
	"reportcard-analyzer/internal/shared/telemetry"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REPORTCARD_CONFIG", "ANALYZE_BASE_URL", "INPUT_MODE", "S3_BUCKET"} {
		t.Setenv(key, "")
	}
	t.Setenv("OBJECT_STORE", "local")
	telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeTextsJSON(t *testing.T) {
	isolateEnv(t)
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"strengths":["Reading"],"areas_for_improvement":["Spelling"]}`)
	}))
	defer srv.Close()

	out, err := run(t, "--endpoint", srv.URL+"/analyze", "--json", "analyze", "texts", "--text", "first", "--text", "second")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var st analysis.State
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if st.Status != analysis.StatusSuccess || st.Feedback == nil {
		t.Fatalf("unexpected state %+v", st)
	}

	var sent struct {
		Texts []string `json:"texts"`
	}
	if err := json.Unmarshal(<-bodies, &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(sent.Texts) != 2 || sent.Texts[0] != "first" || sent.Texts[1] != "second" {
		t.Fatalf("unexpected texts %v", sent.Texts)
	}
}

func TestAnalyzeFileTerminalOutput(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			http.Error(w, "expected multipart", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"strengths":["Math"],"areas_for_improvement":["Attendance"]}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, samplePDF, 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	out, err := run(t, "--endpoint", srv.URL, "analyze", "file", "--file", path, "--student-id", "S-1", "--graduation-year", "2026")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	for _, want := range []string{"Loading...", "AI Feedback", "Math", "Attendance"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeFileWithoutFileFailsWithoutRequest(t *testing.T) {
	isolateEnv(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	out, err := run(t, "--endpoint", srv.URL, "--json", "analyze", "file")
	if !errors.Is(err, errAnalysisFailed) {
		t.Fatalf("expected errAnalysisFailed, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no request, got %d", hits.Load())
	}
	if !strings.Contains(out, analysis.MsgMissingFile) {
		t.Fatalf("output missing validation message:\n%s", out)
	}
}

func TestAnalyzeUpstreamErrorExitsNonZero(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := run(t, "--endpoint", srv.URL, "analyze", "texts", "--text", "x")
	if !errors.Is(err, errAnalysisFailed) {
		t.Fatalf("expected errAnalysisFailed, got %v", err)
	}
	if !strings.Contains(out, analysis.MsgAnalyzeFailed) {
		t.Fatalf("output missing failure message:\n%s", out)
	}
}

func TestNegativeTimeoutRejected(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "--timeout", "-1s", "analyze", "texts"); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

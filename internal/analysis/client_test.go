package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClientRequiresAbsoluteURL(t *testing.T) {
	for _, endpoint := range []string{"", "/analyze", "analyze"} {
		if _, err := NewClient(endpoint, 0); err == nil {
			t.Fatalf("NewClient(%q) expected error", endpoint)
		}
	}
	c, err := NewClient(" http://127.0.0.1:5000/analyze ", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Endpoint() != "http://127.0.0.1:5000/analyze" {
		t.Fatalf("unexpected endpoint %q", c.Endpoint())
	}
}

func TestClientAnalyzePostsJSONTexts(t *testing.T) {
	type captured struct{ method, contentType, body string }
	reqs := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		reqs <- captured{method: r.Method, contentType: r.Header.Get("Content-Type"), body: string(data)}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"strengths":["x"],"areas_for_improvement":["y"]}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/analyze", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	fb, err := c.Analyze(context.Background(), TextsEncoder{}, Input{Texts: []string{"Hello"}})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	got := <-reqs
	if got.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", got.method)
	}
	if got.contentType != "application/json" {
		t.Fatalf("expected application/json, got %s", got.contentType)
	}
	if got.body != `{"texts":["Hello"]}` {
		t.Fatalf("unexpected request body %s", got.body)
	}
	if len(fb.Strengths) != 1 || fb.Strengths[0] != "x" {
		t.Fatalf("unexpected feedback %+v", fb)
	}
}

func TestClientAnalyzeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model unavailable"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, 0)
	_, err := c.Analyze(context.Background(), TextsEncoder{}, Input{Texts: []string{"Hello"}})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", reqErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected body in diagnostic error, got %v", err)
	}
}

func TestClientAnalyzeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := NewClient(url, time.Second)
	_, err := c.Analyze(context.Background(), TextsEncoder{}, Input{Texts: []string{"Hello"}})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.StatusCode != 0 {
		t.Fatalf("expected transport failure, got status %d", reqErr.StatusCode)
	}
}

func TestClientAnalyzeValidationSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, 0)
	_, err := c.Analyze(context.Background(), FileEncoder{}, Input{})
	if !errors.Is(err, ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("expected no request, got %d", n)
	}
}

func TestClientAnalyzeMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"strengths":["only"]}`)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, 0)
	_, err := c.Analyze(context.Background(), TextsEncoder{}, Input{Texts: []string{"Hello"}})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrMissingFile, want: MsgMissingFile},
		{err: &RequestError{StatusCode: 500, Err: errors.New("boom")}, want: MsgAnalyzeFailed},
		{err: context.DeadlineExceeded, want: MsgAnalyzeFailed},
		{err: ErrMalformedResponse, want: MsgMalformed},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Fatalf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

package s3

import (
	"context"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "ns/report.pdf", want: "ns/report.pdf"},
		{name: "simple prefix", prefix: "staging", key: "ns/report.pdf", want: "staging/ns/report.pdf"},
		{name: "prefix trailing slash", prefix: "staging/", key: "ns/report.pdf", want: "staging/ns/report.pdf"},
		{name: "prefix and key slashes", prefix: "/staging/", key: "/ns/report.pdf", want: "staging/ns/report.pdf"},
		{name: "empty key", prefix: "staging", key: "", want: "staging"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	if got := normalizePrefix("  /report-cards/ "); got != "report-cards" {
		t.Fatalf("normalizePrefix = %q", got)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), "us-east-1", "", "", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

package render

import (
	"bytes"
	"strings"
	"testing"

	"reportcard-analyzer/internal/analysis"
)

func reportCardState() analysis.State {
	return analysis.State{
		Mode:   analysis.ModeFile,
		Status: analysis.StatusSuccess,
		Feedback: &analysis.Feedback{
			Strengths:           []string{"Good algebra"},
			AreasForImprovement: []string{"Needs essay practice"},
		},
	}
}

func TestTerminalRendersOneItemPerEntry(t *testing.T) {
	var buf bytes.Buffer
	if err := Terminal(&buf, reportCardState()); err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"AI Feedback", "Strengths:", "• Good algebra", "Areas for Improvement:", "• Needs essay practice"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "•"); n != 2 {
		t.Fatalf("expected 2 list items, got %d:\n%s", n, out)
	}
	if strings.Contains(out, "Progress from Previous Years") {
		t.Fatalf("history section should be omitted when absent:\n%s", out)
	}
}

func TestTerminalStates(t *testing.T) {
	tests := []struct {
		name string
		st   analysis.State
		want string
		deny string
	}{
		{name: "loading", st: analysis.State{Loading: true}, want: "Loading..."},
		{name: "error", st: analysis.State{Error: analysis.MsgAnalyzeFailed}, want: "Failed to analyze the text.", deny: "AI Feedback"},
		{name: "plain text", st: analysis.State{Feedback: &analysis.Feedback{Text: "plain feedback string"}}, want: "plain feedback string", deny: "Strengths:"},
		{
			name: "history",
			st: analysis.State{Feedback: &analysis.Feedback{
				Strengths: []string{}, AreasForImprovement: []string{}, HistoricalProgress: "Improved since 2024",
			}},
			want: "Progress from Previous Years:\nImproved since 2024",
		},
		{name: "idle", st: analysis.State{}, deny: "AI Feedback"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Terminal(&buf, tt.st); err != nil {
				t.Fatalf("Terminal: %v", err)
			}
			if tt.want != "" && !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("output missing %q:\n%s", tt.want, buf.String())
			}
			if tt.deny != "" && strings.Contains(buf.String(), tt.deny) {
				t.Fatalf("output should not contain %q:\n%s", tt.deny, buf.String())
			}
		})
	}
}

func TestHTMLRendersFeedbackLists(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, Page{Title: "AI Report Card Analysis", State: reportCardState()}); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	out := buf.String()
	if n := strings.Count(out, "<li>"); n != 2 {
		t.Fatalf("expected 2 list items, got %d:\n%s", n, out)
	}
	for _, want := range []string{"<li>Good algebra</li>", "<li>Needs essay practice</li>", `name="student_id"`, `accept="application/pdf"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestHTMLTextModeAndEscaping(t *testing.T) {
	st := analysis.State{
		Mode:     analysis.ModeTexts,
		Texts:    []string{"Hello", ""},
		Feedback: &analysis.Feedback{Text: "<b>plain feedback string</b>"},
	}
	var buf bytes.Buffer
	if err := HTML(&buf, Page{Title: "AI Feedback", State: st}); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "<textarea") != 2 {
		t.Fatalf("expected 2 text boxes:\n%s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;plain feedback string&lt;/b&gt;") {
		t.Fatalf("expected escaped literal text:\n%s", out)
	}
	if !strings.Contains(out, `action="/texts"`) {
		t.Fatal("expected add text box form")
	}
}

func TestHTMLHidesFeedbackOnError(t *testing.T) {
	st := reportCardState()
	st.Error = analysis.MsgMissingFile
	page := Page{State: st}
	if page.ShowFeedback() {
		t.Fatal("feedback should be hidden while an error is shown")
	}
	var buf bytes.Buffer
	if err := HTML(&buf, page); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if strings.Contains(buf.String(), "Good algebra") {
		t.Fatal("feedback rendered alongside error")
	}
	if !strings.Contains(buf.String(), "Please upload a PDF file") {
		t.Fatal("error not rendered")
	}
}

package render

import (
	"fmt"
	"html/template"
	"io"

	"reportcard-analyzer/internal/analysis"
)

// Page is the data for the HTML view.
type Page struct {
	Title          string
	State          analysis.State
	MaxUploadBytes int64
}

// ShowFeedback mirrors the terminal rule: feedback only when idle and error free.
func (p Page) ShowFeedback() bool {
	return !p.State.Loading && p.State.Error == "" && p.State.Feedback != nil
}

const pageTemplateName = "view.html"

var pageTemplate = template.Must(template.New(pageTemplateName).Parse(pageHTML))

// Template returns the parsed page template for engines that render by name.
func Template() *template.Template {
	return pageTemplate
}

// TemplateName is the name to pass when rendering Template.
func TemplateName() string {
	return pageTemplateName
}

// HTML writes the full page.
func HTML(w io.Writer, p Page) error {
	if err := pageTemplate.ExecuteTemplate(w, pageTemplateName, p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { display: flex; flex-direction: column; align-items: center; font-family: Arial, sans-serif; color: #000; background: #fff; }
h1, h3 { color: #e60000; }
input, textarea { padding: 10px; border-radius: 5px; border: 2px solid #e60000; background: #f8f8f8; font-size: 16px; width: 80%; margin-bottom: 15px; }
button { background: #e60000; color: #fff; padding: 10px 20px; font-size: 16px; border: none; border-radius: 5px; cursor: pointer; margin-bottom: 20px; }
.error { color: red; }
.feedback { background: #f0f0f0; padding: 20px; border-radius: 8px; width: 80%; text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<form method="post" action="/" enctype="multipart/form-data">
{{- if eq .State.Mode "file"}}
<input type="file" name="file" accept="application/pdf">
{{- if .State.FileName}}<p>Selected: {{.State.FileName}}</p>{{end}}
<input type="text" name="student_id" placeholder="Student ID" value="{{.State.StudentID}}">
<input type="text" name="graduation_year" placeholder="Graduation year" value="{{.State.GraduationYear}}">
{{- else}}
{{- range $i, $text := .State.Texts}}
<textarea name="texts" rows="6" cols="50" data-index="{{$i}}">{{$text}}</textarea>
{{- end}}
{{- end}}
<button type="submit">Analyze</button>
</form>
{{- if ne .State.Mode "file"}}
<form method="post" action="/texts"><button type="submit">Add text box</button></form>
{{- end}}
{{- if .State.Loading}}
<div class="loading">Loading...</div>
{{- end}}
{{- if .State.Error}}
<div class="error">{{.State.Error}}</div>
{{- end}}
{{- if .ShowFeedback}}
{{- with .State.Feedback}}
<div class="feedback">
<h3>AI Feedback</h3>
{{- if .IsText}}
<p class="text">{{.Text}}</p>
{{- else}}
<h4><strong>Strengths:</strong></h4>
<ul class="strengths">
{{- range .Strengths}}
<li>{{.}}</li>
{{- end}}
</ul>
<h4><strong>Areas for Improvement:</strong></h4>
<ul class="areas">
{{- range .AreasForImprovement}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- if .SpecificSkills}}
<h4><strong>Specific Skills:</strong></h4>
<ul class="skills">
{{- range .SpecificSkills}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .HistoricalProgress}}
<h4><strong>Progress from Previous Years:</strong></h4>
<p class="history">{{.HistoricalProgress}}</p>
{{- end}}
{{- end}}
</div>
{{- end}}
{{- end}}
</body>
</html>
`

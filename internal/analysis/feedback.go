package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// Feedback is the parsed analysis result.
type Feedback struct {
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	SpecificSkills      []string `json:"specific_skills,omitempty"`
	HistoricalProgress  string   `json:"historical_progress,omitempty"`
	// Text holds plain-string feedback; the lists are empty in that case.
	Text string `json:"text,omitempty"`
	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// IsText reports whether the service answered with free-form text.
func (f *Feedback) IsText() bool {
	return f != nil && f.Text != "" && f.Strengths == nil && f.AreasForImprovement == nil
}

// ParseFeedback validates a 2xx response body into Feedback.
//
// Accepted shapes: an object with "strengths" and "areas_for_improvement"
// (or "areas_of_growth") string arrays, a JSON string, JSON wrapped in a
// markdown code fence, or text/plain that is neither a JSON object nor a JSON
// string. Everything else wraps
// ErrMalformedResponse.
func ParseFeedback(contentType string, body []byte) (*Feedback, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	candidate := unfence(trimmed)
	if json.Valid(candidate) {
		fb, err := decodeFeedback(candidate)
		if err != nil {
			// A plain-text answer such as "42" happens to parse as JSON.
			if isPlainText(contentType) && !isObjectOrString(candidate) {
				return &Feedback{Text: string(trimmed), Raw: append(json.RawMessage(nil), body...)}, nil
			}
			return nil, err
		}
		fb.Raw = append(json.RawMessage(nil), body...)
		return fb, nil
	}

	if isPlainText(contentType) {
		return &Feedback{Text: string(trimmed), Raw: append(json.RawMessage(nil), body...)}, nil
	}
	return nil, fmt.Errorf("%w: body is not json (content-type %q)", ErrMalformedResponse, contentType)
}

func decodeFeedback(data []byte) (*Feedback, error) {
	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: empty text", ErrMalformedResponse)
		}
		return &Feedback{Text: text}, nil
	case '{':
	default:
		return nil, fmt.Errorf("%w: expected object or string", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var fb Feedback
	var err error
	if fb.Strengths, err = stringList(fields, "strengths"); err != nil {
		return nil, err
	}
	areasKey := "areas_for_improvement"
	if _, ok := fields[areasKey]; !ok {
		if _, alias := fields["areas_of_growth"]; alias {
			areasKey = "areas_of_growth"
		}
	}
	if fb.AreasForImprovement, err = stringList(fields, areasKey); err != nil {
		return nil, err
	}
	if _, ok := fields["specific_skills"]; ok {
		if fb.SpecificSkills, err = stringList(fields, "specific_skills"); err != nil {
			return nil, err
		}
	}
	if raw, ok := fields["historical_progress"]; ok {
		fb.HistoricalProgress = opaqueString(raw)
	}
	return &fb, nil
}

func stringList(fields map[string]json.RawMessage, key string) ([]string, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, key)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: %q is null", ErrMalformedResponse, key)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %q must be a list of strings", ErrMalformedResponse, key)
	}
	return out, nil
}

// opaqueString keeps historical progress as text whatever its JSON shape.
func opaqueString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// unfence strips a markdown code fence around model output, e.g. ```json ... ```.
func unfence(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") && !strings.HasPrefix(strings.ToLower(s), "json") {
		return data
	}
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}
	return []byte(s)
}

func isObjectOrString(data []byte) bool {
	return data[0] == '{' || data[0] == '"'
}

func isPlainText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/plain"
}

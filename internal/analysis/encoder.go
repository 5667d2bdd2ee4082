package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"reportcard-analyzer/internal/shared/telemetry"
)

const (
	ModeFile  = "file"
	ModeTexts = "texts"

	mimePDF = "application/pdf"
)

// Input is everything captured by the view at submission time.
type Input struct {
	File           *File
	StudentID      string
	GraduationYear string
	Texts          []string
}

func (in Input) clone() Input {
	out := in
	if in.File != nil {
		f := *in.File
		out.File = &f
	}
	out.Texts = append([]string(nil), in.Texts...)
	return out
}

// Encoder turns captured input into a request body for one input variant.
type Encoder interface {
	Mode() string
	// Validate runs the local precondition checks. It never touches the network.
	Validate(in Input) error
	// Encode returns the request body and its Content-Type.
	Encode(ctx context.Context, in Input) ([]byte, string, error)
}

// EncoderFor returns the encoder for a configured input mode.
func EncoderFor(mode string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeFile:
		return FileEncoder{}, nil
	case ModeTexts:
		return TextsEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown input mode %q", mode)
	}
}

// FileEncoder sends the report card as multipart/form-data with the
// file, student_id and graduation_year parts.
type FileEncoder struct{}

func (FileEncoder) Mode() string { return ModeFile }

// Validate only requires a selected file. The bytes are forwarded as-is, so a
// file whose content is not detected as PDF is logged and still sent.
func (FileEncoder) Validate(in Input) error {
	if in.File == nil {
		return ErrMissingFile
	}
	if in.File.ContentType != "" && !mimetype.EqualsAny(in.File.ContentType, mimePDF) {
		telemetry.Warn("submission.file.not_pdf", map[string]any{
			"file_name":    in.File.Name,
			"content_type": in.File.ContentType,
		})
	}
	return nil
}

func (e FileEncoder) Encode(ctx context.Context, in Input) ([]byte, string, error) {
	if err := e.Validate(in); err != nil {
		return nil, "", err
	}

	src, err := in.File.Open(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", in.File.Name, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(in.File.Name)))
	h.Set("Content-Type", mimePDF)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("copy %s: %w", in.File.Name, err)
	}
	if err := mw.WriteField("student_id", in.StudentID); err != nil {
		return nil, "", fmt.Errorf("write student_id: %w", err)
	}
	if err := mw.WriteField("graduation_year", in.GraduationYear); err != nil {
		return nil, "", fmt.Errorf("write graduation_year: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// TextsEncoder sends the text boxes as {"texts": [...]} in box order.
type TextsEncoder struct{}

func (TextsEncoder) Mode() string { return ModeTexts }

func (TextsEncoder) Validate(Input) error { return nil }

func (TextsEncoder) Encode(ctx context.Context, in Input) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	texts := in.Texts
	if texts == nil {
		texts = []string{}
	}
	body, err := json.Marshal(struct {
		Texts []string `json:"texts"`
	}{Texts: texts})
	if err != nil {
		return nil, "", fmt.Errorf("marshal texts: %w", err)
	}
	return body, "application/json", nil
}

package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"reportcard-analyzer/internal/shared/metrics"
	"reportcard-analyzer/internal/shared/telemetry"
)

// Status is the submission lifecycle: idle -> submitting -> success|failed.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// State is a consistent snapshot of the view.
type State struct {
	Mode           string    `json:"mode"`
	Status         Status    `json:"status"`
	Loading        bool      `json:"loading"`
	Error          string    `json:"error,omitempty"`
	Feedback       *Feedback `json:"feedback,omitempty"`
	Generation     uint64    `json:"generation"`
	SubmissionID   string    `json:"submissionId,omitempty"`
	FileName       string    `json:"fileName,omitempty"`
	StudentID      string    `json:"studentId"`
	GraduationYear string    `json:"graduationYear"`
	Texts          []string  `json:"texts"`
}

// View holds the input fields and the outcome of the latest submission.
// It is safe for concurrent use; overlapping submissions are resolved by
// generation so only the newest one can change the outcome.
type View struct {
	analyzer Analyzer
	encoder  Encoder

	mu           sync.Mutex
	input        Input
	status       Status
	loading      bool
	errMsg       string
	feedback     *Feedback
	generation   uint64
	submissionID string
	// inflight counts submissions that have not resolved, superseded ones included.
	inflight int
}

// NewView creates a view with empty fields and one empty text box.
func NewView(analyzer Analyzer, enc Encoder) *View {
	return &View{
		analyzer: analyzer,
		encoder:  enc,
		input:    Input{Texts: []string{""}},
		status:   StatusIdle,
	}
}

// SelectFile replaces the selected file and returns the previous one, if any.
func (v *View) SelectFile(f File) *File {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := v.input.File
	v.input.File = &f
	return prev
}

// ClearFile drops the selected file and returns it.
func (v *View) ClearFile() *File {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := v.input.File
	v.input.File = nil
	return prev
}

func (v *View) SetStudentID(value string) {
	v.mu.Lock()
	v.input.StudentID = value
	v.mu.Unlock()
}

func (v *View) SetGraduationYear(value string) {
	v.mu.Lock()
	v.input.GraduationYear = value
	v.mu.Unlock()
}

// SetTextAt updates one text box. It reports false for an index with no box.
func (v *View) SetTextAt(index int, value string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if index < 0 || index >= len(v.input.Texts) {
		return false
	}
	v.input.Texts[index] = value
	return true
}

// AddTextBox appends an empty text box and returns its index.
func (v *View) AddTextBox() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input.Texts = append(v.input.Texts, "")
	return len(v.input.Texts) - 1
}

// InFlight reports how many submissions are still waiting on a result,
// including ones a newer submission has already superseded. Input captured by
// any of them may still be read.
func (v *View) InFlight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inflight
}

// State returns a snapshot of the view.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Submit validates the current input and sends it for analysis.
//
// The returned error is nil on success, wraps ErrValidation for local
// failures, is a *RequestError for transport or status failures, wraps
// ErrMalformedResponse for unusable bodies, and is ErrSuperseded when a newer
// submission started before this one resolved. In the superseded case the
// view keeps the newer submission's state.
func (v *View) Submit(ctx context.Context) (State, error) {
	v.mu.Lock()
	v.generation++
	v.inflight++
	gen := v.generation
	id := uuid.NewString()
	v.submissionID = id
	v.status = StatusSubmitting
	v.loading = true
	v.errMsg = ""
	v.feedback = nil
	in := v.input.clone()
	enc := v.encoder
	v.mu.Unlock()

	metrics.IncSubmissionStarted()
	fields := map[string]any{
		"submission_id": id,
		"generation":    gen,
		"mode":          enc.Mode(),
	}

	if err := enc.Validate(in); err != nil {
		metrics.IncSubmissionRejected()
		fields["err"] = err
		telemetry.Info("submission.rejected", fields)
		return v.resolve(gen, nil, err)
	}

	telemetry.Info("submission.started", fields)
	start := time.Now()
	fb, err := v.analyzer.Analyze(ctx, enc, in)
	elapsed := time.Since(start)
	metrics.ObserveSubmissionDurationMs(float64(elapsed.Microseconds()) / 1000.0)
	fields["duration_ms"] = float64(elapsed.Microseconds()) / 1000.0

	switch {
	case err != nil:
		fields["err"] = err
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			fields["status"] = reqErr.StatusCode
		}
		telemetry.Error("submission.failed", fields)
	case fb == nil:
		err = ErrMalformedResponse
		telemetry.Error("submission.failed", fields)
	default:
		telemetry.Info("submission.succeeded", fields)
	}
	return v.resolve(gen, fb, err)
}

func (v *View) resolve(gen uint64, fb *Feedback, err error) (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inflight--

	if gen != v.generation {
		metrics.IncSubmissionSuperseded()
		telemetry.Warn("submission.superseded", map[string]any{
			"generation": gen,
			"current":    v.generation,
		})
		return v.snapshotLocked(), ErrSuperseded
	}

	v.loading = false
	if err != nil {
		if !errors.Is(err, ErrValidation) {
			metrics.IncSubmissionFailed()
		}
		v.status = StatusFailed
		v.errMsg = UserMessage(err)
		v.feedback = nil
		return v.snapshotLocked(), err
	}

	metrics.IncSubmissionSucceeded()
	v.status = StatusSuccess
	v.errMsg = ""
	v.feedback = fb
	return v.snapshotLocked(), nil
}

func (v *View) snapshotLocked() State {
	st := State{
		Mode:           v.encoder.Mode(),
		Status:         v.status,
		Loading:        v.loading,
		Error:          v.errMsg,
		Feedback:       v.feedback,
		Generation:     v.generation,
		SubmissionID:   v.submissionID,
		StudentID:      v.input.StudentID,
		GraduationYear: v.input.GraduationYear,
		Texts:          append([]string(nil), v.input.Texts...),
	}
	if v.input.File != nil {
		st.FileName = v.input.File.Name
	}
	return st
}

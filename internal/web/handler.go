package web

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	ginrender "github.com/gin-gonic/gin/render"

	"reportcard-analyzer/internal/analysis"
	"reportcard-analyzer/internal/render"
	"reportcard-analyzer/internal/shared/server/middleware"
	"reportcard-analyzer/internal/shared/server/respond"
	"reportcard-analyzer/internal/shared/storage/object"
	"reportcard-analyzer/internal/shared/telemetry"
)

const (
	defaultTitle      = "Report Card Analyzer"
	defaultMaxUpload  = 10 << 20
	multipartOverhead = 1 << 20
	stagingNamespace  = "view"
)

// Handler serves the shared analysis view as an HTML page and a JSON API.
type Handler struct {
	View           *analysis.View
	Store          object.ObjectStore
	MaxUploadBytes int64
	Title          string

	mu sync.Mutex
	// pending holds replaced staged files that an unresolved submission may still read.
	pending []string
}

// NewHandler constructs a Handler.
func NewHandler(view *analysis.View, store object.ObjectStore, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUpload
	}
	return &Handler{
		View:           view,
		Store:          store,
		MaxUploadBytes: maxUploadBytes,
		Title:          defaultTitle,
	}
}

// RegisterPages attaches the HTML form routes.
func (h *Handler) RegisterPages(r gin.IRoutes) {
	r.GET("/", h.page)
	r.POST("/", h.formSubmit)
	r.POST("/texts", h.formAddText)
}

// RegisterRoutes attaches the JSON view routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/view", h.state)
	rg.POST("/view/file", h.uploadFile)
	rg.DELETE("/view/file", h.clearFile)
	rg.PUT("/view/student-id", h.setStudentID)
	rg.PUT("/view/graduation-year", h.setGraduationYear)
	rg.POST("/view/texts", h.addText)
	rg.PUT("/view/texts/:index", h.setText)
	rg.POST("/view/submit", h.submit)
}

type valueRequest struct {
	Value *string `json:"value"`
}

type addTextResponse struct {
	Index int            `json:"index"`
	State analysis.State `json:"state"`
}

func (h *Handler) page(c *gin.Context) {
	h.renderPage(c, http.StatusOK, h.View.State())
}

func (h *Handler) renderPage(c *gin.Context, status int, st analysis.State) {
	c.Render(status, ginrender.HTML{
		Template: render.Template(),
		Name:     render.TemplateName(),
		Data: render.Page{
			Title:          h.Title,
			State:          st,
			MaxUploadBytes: h.MaxUploadBytes,
		},
	})
}

func (h *Handler) formSubmit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)
	if err := c.Request.ParseMultipartForm(h.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if isTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{"maxBytes": h.MaxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid form", nil)
		return
	}

	switch h.View.State().Mode {
	case analysis.ModeFile:
		if fh, err := c.FormFile("file"); err == nil {
			if err := h.stage(c, fh); err != nil {
				respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
				return
			}
		}
		h.View.SetStudentID(strings.TrimSpace(c.PostForm("student_id")))
		h.View.SetGraduationYear(strings.TrimSpace(c.PostForm("graduation_year")))
	default:
		h.applyTexts(c.PostFormArray("texts"))
	}

	st, err := h.View.Submit(c.Request.Context())
	markSubmission(c, st)
	h.flushPending(c)
	if errors.Is(err, analysis.ErrSuperseded) {
		st = h.View.State()
	}
	h.renderPage(c, http.StatusOK, st)
}

func (h *Handler) formAddText(c *gin.Context) {
	h.View.AddTextBox()
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) state(c *gin.Context) {
	respond.OK(c, h.View.State())
}

func (h *Handler) uploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{"maxBytes": h.MaxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fh.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}

	if err := h.stage(c, fh); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, h.View.State())
}

// stage stores the upload and selects it, discarding the previously staged file.
func (h *Handler) stage(c *gin.Context, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	ctx := c.Request.Context()
	key, size, mimeType, err := h.Store.Save(ctx, stagingNamespace, fh.Filename, src)
	if err != nil {
		telemetry.Warn("view.file.stage_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"file_name":  fh.Filename,
			"err":        err,
		})
		return err
	}
	telemetry.Info("view.file.staged", map[string]any{
		"request_id":  middleware.RequestIDFromContext(c),
		"storage_key": key,
		"size_bytes":  size,
		"mime_type":   mimeType,
	})

	prev := h.View.SelectFile(analysis.FileFromStore(h.Store, key, fh.Filename, mimeType, size))
	h.discard(c, prev)
	return nil
}

func (h *Handler) clearFile(c *gin.Context) {
	h.discard(c, h.View.ClearFile())
	respond.OK(c, h.View.State())
}

// discard removes a staged file that is no longer selected. While any
// submission is unresolved the file is kept until flushPending.
func (h *Handler) discard(c *gin.Context, f *analysis.File) {
	if f == nil || f.StorageKey == "" {
		return
	}
	h.mu.Lock()
	h.pending = append(h.pending, f.StorageKey)
	h.mu.Unlock()
	h.flushPending(c)
}

// flushPending deletes retained files once no submission can still read them.
// A replaced file is never selected again, so a later submission cannot pick it up.
func (h *Handler) flushPending(c *gin.Context) {
	h.mu.Lock()
	if len(h.pending) == 0 {
		h.mu.Unlock()
		return
	}
	if n := h.View.InFlight(); n > 0 {
		h.mu.Unlock()
		telemetry.Info("view.file.retained", map[string]any{"in_flight": n})
		return
	}
	keys := h.pending
	h.pending = nil
	h.mu.Unlock()

	ctx := context.WithoutCancel(c.Request.Context())
	for _, key := range keys {
		if err := h.Store.Delete(ctx, key); err != nil {
			telemetry.Warn("view.file.delete_failed", map[string]any{
				"storage_key": key,
				"err":         err,
			})
		}
	}
}

func (h *Handler) setStudentID(c *gin.Context) {
	value, ok := bindValue(c)
	if !ok {
		return
	}
	h.View.SetStudentID(value)
	respond.OK(c, h.View.State())
}

func (h *Handler) setGraduationYear(c *gin.Context) {
	value, ok := bindValue(c)
	if !ok {
		return
	}
	h.View.SetGraduationYear(value)
	respond.OK(c, h.View.State())
}

func (h *Handler) addText(c *gin.Context) {
	idx := h.View.AddTextBox()
	respond.JSON(c, http.StatusCreated, addTextResponse{Index: idx, State: h.View.State()})
}

func (h *Handler) setText(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "index must be an integer", nil)
		return
	}
	value, ok := bindValue(c)
	if !ok {
		return
	}
	if !h.View.SetTextAt(idx, value) {
		respond.Error(c, http.StatusNotFound, "not_found", "text box not found", gin.H{"index": idx})
		return
	}
	respond.OK(c, h.View.State())
}

func (h *Handler) submit(c *gin.Context) {
	st, err := h.View.Submit(c.Request.Context())
	markSubmission(c, st)
	h.flushPending(c)

	// The body is always the view state; the status code classifies the outcome.
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, analysis.ErrSuperseded):
		status = http.StatusConflict
	case errors.Is(err, analysis.ErrValidation):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusBadGateway
	}
	respond.JSON(c, status, st)
}

func (h *Handler) applyTexts(values []string) {
	if len(values) == 0 {
		return
	}
	have := len(h.View.State().Texts)
	for i, v := range values {
		for i >= have {
			h.View.AddTextBox()
			have++
		}
		h.View.SetTextAt(i, v)
	}
}

func bindValue(c *gin.Context) (string, bool) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "value is required", nil)
		return "", false
	}
	return *req.Value, true
}

func markSubmission(c *gin.Context, st analysis.State) {
	c.Set(middleware.SubmissionIDKey, st.SubmissionID)
	c.Set(middleware.GenerationKey, st.Generation)
	c.Set(middleware.StatusKey, string(st.Status))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

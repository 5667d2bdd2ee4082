package health

// Service encapsulates health-related checks.
type Service struct {
	endpoint string
	mode     string
}

// NewService constructs a health service reporting the configured analysis target.
func NewService(endpoint, mode string) *Service {
	return &Service{endpoint: endpoint, mode: mode}
}

// Status returns the health payload.
func (s *Service) Status() map[string]any {
	if s == nil {
		return map[string]any{"ok": true}
	}
	return map[string]any{
		"ok":       true,
		"endpoint": s.endpoint,
		"mode":     s.mode,
	}
}

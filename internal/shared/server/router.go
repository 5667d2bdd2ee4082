package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reportcard-analyzer/internal/services/health"
	"reportcard-analyzer/internal/shared/config"
	"reportcard-analyzer/internal/shared/metrics"
	"reportcard-analyzer/internal/shared/server/middleware"
	"reportcard-analyzer/internal/shared/server/respond"
	"reportcard-analyzer/internal/web"
)

const submitGroup = "SUBMIT"

// RouterDeps bundles the handlers mounted by NewRouter.
type RouterDeps struct {
	Config  config.Config
	Handler *web.Handler
	Health  *health.Service
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: groupFor,
			Limiter:  deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				submitGroup: {Rate: cfg.SubmitRate, Burst: cfg.SubmitBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})

	if deps.Handler != nil {
		deps.Handler.RegisterPages(r)
		deps.Handler.RegisterRoutes(api)
	}

	return r
}

// groupFor puts the two routes that reach the analysis service in the submit bucket.
func groupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch c.FullPath() {
	case "/", "/api/v1/view/submit":
		return submitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

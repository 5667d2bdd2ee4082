package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"reportcard-analyzer/internal/analysis"
	"reportcard-analyzer/internal/services/health"
	"reportcard-analyzer/internal/shared/config"
	"reportcard-analyzer/internal/shared/server"
	"reportcard-analyzer/internal/shared/server/middleware"
	"reportcard-analyzer/internal/shared/storage/object"
	localstore "reportcard-analyzer/internal/shared/storage/object/local"
	s3store "reportcard-analyzer/internal/shared/storage/object/s3"
	"reportcard-analyzer/internal/shared/telemetry"
	"reportcard-analyzer/internal/web"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	Store    object.ObjectStore
	Client   *analysis.Client
	Encoder  analysis.Encoder
	View     *analysis.View
	Handler  *web.Handler
	Health   *health.Service
	Endpoint string
}

// Build validates cfg and wires the view, its handler and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	client, err := analysis.NewClient(endpoint, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	enc, err := analysis.EncoderFor(cfg.InputMode)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	view := analysis.NewView(client, enc)
	app := &App{
		Config:   cfg,
		Store:    store,
		Client:   client,
		Encoder:  enc,
		View:     view,
		Handler:  web.NewHandler(view, store, cfg.MaxUploadBytes),
		Health:   health.NewService(endpoint, enc.Mode()),
		Endpoint: endpoint,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:  app.Config,
		Handler: app.Handler,
		Health:  app.Health,
		Limiter: middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"endpoint":     endpoint,
		"mode":         enc.Mode(),
		"object_store": cfg.ObjectStoreType,
		"timeout_ms":   cfg.RequestTimeout.Milliseconds(),
	})
	return app, nil
}

// BuildClient wires only the analysis client and encoder, for one-shot CLI use.
func BuildClient(cfg config.Config) (*analysis.Client, analysis.Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, nil, err
	}
	client, err := analysis.NewClient(endpoint, cfg.RequestTimeout)
	if err != nil {
		return nil, nil, err
	}
	enc, err := analysis.EncoderFor(cfg.InputMode)
	if err != nil {
		return nil, nil, err
	}
	return client, enc, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

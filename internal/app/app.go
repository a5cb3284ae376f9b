package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"designify/internal/archive"
	"designify/internal/assistant"
	"designify/internal/config"
	"designify/internal/gateway/handler"
	"designify/internal/gateway/server"
	"designify/internal/imagehost"
	"designify/internal/listing"
	"designify/internal/render"
)

// App wires the assistant: external clients, decision engine, session
// store and the chat gateway.
type App struct {
	server  *server.Server
	turnlog *archive.TurnLog
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.RenderAPIKey == "" {
		return nil, fmt.Errorf("RENDER_API_KEY is required")
	}
	if cfg.ImageHostAPIKey == "" {
		return nil, fmt.Errorf("IMAGE_HOST_API_KEY is required")
	}

	renderClient, err := render.NewClient(cfg.RenderEndpoint, cfg.RenderAPIKey)
	if err != nil {
		return nil, err
	}
	catalog, err := render.NewCatalog(renderClient, cfg.CatalogTTL)
	if err != nil {
		return nil, err
	}
	// The assistant is useless without its template catalog; refuse to
	// start rather than greet users and fail on the first turn.
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	templates, err := catalog.Templates(loadCtx)
	if err != nil {
		return nil, fmt.Errorf("load template catalog: %w", err)
	}
	log.Printf("loaded %d templates", len(templates))

	listingClient, err := listing.NewClient(cfg.MLSEndpoint, cfg.MLSSystemID)
	if err != nil {
		return nil, err
	}
	uploader, err := imagehost.NewClient(cfg.ImageHostEndpoint, cfg.ImageHostAPIKey)
	if err != nil {
		return nil, err
	}

	fields := listing.DefaultFieldTable()
	if cfg.FieldMapFile != "" {
		fields, err = listing.LoadFieldTable(cfg.FieldMapFile)
		if err != nil {
			return nil, err
		}
	}

	engine, err := assistant.NewGeminiEngine(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Company)
	if err != nil {
		return nil, err
	}

	actionHandler := assistant.NewHandler(renderClient, listingClient, fields)
	if cfg.Archive.Enabled {
		s3, err := archive.NewS3Store(archive.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		actionHandler = actionHandler.WithArchiver(s3)
		log.Printf("design archive enabled (bucket %s)", cfg.Archive.Bucket)
	}

	controller := assistant.NewController(engine, catalog, actionHandler, uploader, cfg.Company)

	var turnlog *archive.TurnLog
	if cfg.DatabaseURL != "" {
		turnlog, err = archive.NewTurnLog(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		controller = controller.WithTurnLog(turnlog)
		log.Printf("turn log enabled")
	}

	store := assistant.NewStore(cfg.SessionCap, cfg.SessionTTL, controller.Greeting())

	mux := server.NewMux(handler.New(store, controller, catalog))
	srv := server.New(cfg.Port, mux)

	return &App{server: srv, turnlog: turnlog}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.turnlog != nil {
		defer a.turnlog.Close()
	}
	return a.server.Shutdown(ctx)
}

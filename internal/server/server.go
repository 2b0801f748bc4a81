package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipcheck/internal/classifier"
	"shipcheck/internal/config"
	"shipcheck/internal/handler"
	"shipcheck/internal/preview"
	"shipcheck/internal/repository"
	"shipcheck/internal/service"
	"shipcheck/internal/upload"
)

const (
	templatesGlob = "web/templates/*"
	previewPath   = "/previews"
	sweepInterval = time.Minute
)

type Server struct {
	httpServer *http.Server
	sessions   service.SessionService
	cfg        *config.Config
	log        *zap.Logger
	sweepCtx   context.Context
	stopSweep  context.CancelFunc
}

func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	previews, source, err := newPreviewStore(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview store: %w", err)
	}

	cls := classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout, log)
	sessions := service.NewSessionService(cls, previews, cfg, log)
	h := handler.NewHandler(sessions, source, cfg.App.MaxUploadSize, log)

	router := NewRouter(h, templatesGlob)
	sweepCtx, stopSweep := context.WithCancel(context.Background())

	server := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1 MB
		},
		sessions:  sessions,
		cfg:       cfg,
		log:       log,
		sweepCtx:  sweepCtx,
		stopSweep: stopSweep,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("classifier", cfg.Classifier.URL),
		zap.String("preview_backend", cfg.Preview.Backend))

	return server, nil
}

// NewRouter wires the handlers. An empty glob skips the HTML page.
func NewRouter(h *handler.Handler, glob string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if glob != "" {
		router.LoadHTMLGlob(glob)
		router.GET("/", h.GetUI)
	}
	router.GET("/health", h.HealthCheck)
	router.GET(previewPath+"/:id", h.GetPreview)

	api := router.Group("/api")
	{
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.CloseSession)
		api.POST("/sessions/:id/image", h.SelectImage)
		api.DELETE("/sessions/:id/image", h.ClearImage)
		api.PUT("/sessions/:id/language", h.SetLanguage)
		api.POST("/sessions/:id/submit", h.Submit)
	}

	return router
}

func newPreviewStore(cfg *config.Config, log *zap.Logger) (upload.PreviewStore, handler.PreviewSource, error) {
	opt := preview.Options{
		MaxDimension: cfg.Preview.MaxDimension,
		Quality:      cfg.Preview.Quality,
	}

	if cfg.Preview.Backend == config.PreviewBackendS3 {
		repo, err := repository.NewS3Repository(context.Background(), &cfg.S3, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 repository: %w", err)
		}
		return preview.NewS3Store(repo, cfg.Preview.URLTTL, opt, log), nil, nil
	}

	mem := preview.NewMemoryStore(previewPath, opt, log)
	return mem, mem, nil
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("host", s.cfg.Server.Host),
		zap.String("port", s.cfg.Server.Port),
		zap.String("address", s.httpServer.Addr))

	go s.sweep(s.sweepCtx)

	return s.httpServer.ListenAndServe()
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sessions.Sweep(ctx, now)
		}
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	s.stopSweep()
	err := s.httpServer.Shutdown(ctx)
	s.sessions.CloseAll(ctx)
	return err
}

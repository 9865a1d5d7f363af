package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"damage-vision/config"
	"damage-vision/internal/api"
)

// Server HTTP-сервер анализа повреждений.
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// New собирает маршруты и создаёт сервер.
func New(cfg *config.Config, h *api.Handler, log *zap.Logger) *Server {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.App.MaxUploadSize

	router.GET("/health", h.HealthCheck)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/analyze-damage", h.AnalyzeDamage)
		apiGroup.POST("/translate-document", h.TranslateDocument)
		apiGroup.POST("/extract-vehicle-info", h.ExtractVehicleInfo)
		apiGroup.GET("/assessments/:id", h.GetAssessment)
	}

	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:        router,
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   120 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port))

	return server
}

// Run запускает сервер и блокируется до его остановки.
func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("address", s.httpServer.Addr),
		zap.String("ocr_provider", s.cfg.App.OCRProvider))

	return s.httpServer.ListenAndServe()
}

// Shutdown корректно останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

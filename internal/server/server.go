package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"codeberg.org/mutker/scadactl/internal/app"
	"codeberg.org/mutker/scadactl/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP facade over the application components.
type Server struct {
	app    *app.App
	engine *gin.Engine
	listen string
}

func New(a *app.App, listen string) *Server {
	if !logger.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	s := &Server{app: a, engine: engine, listen: listen}
	s.routes()

	return s
}

func (s *Server) routes() {
	h := &handlers{app: s.app}

	s.engine.GET("/", h.root)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/status", h.status)
		api.GET("/data/latest", h.latest)
		api.GET("/data/history", h.history)
		api.GET("/data/statistics", h.statistics)
		api.GET("/data/stream", h.stream)
		api.GET("/export", h.export)

		api.POST("/chat", h.chat)
		api.POST("/action/approve", h.approveAction)

		api.GET("/points", h.listPoints)
		api.POST("/points", h.addPoint)
		api.PUT("/points/:name", h.updatePoint)
		api.DELETE("/points/:name", h.deletePoint)
		api.POST("/points/reorder", h.reorderPoints)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("listen", s.listen).Msg("HTTP server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info().Msg("HTTP server shutting down")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

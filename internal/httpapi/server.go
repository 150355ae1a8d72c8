// Package httpapi is the thin gin adapter in front of the media library,
// player manager and stream coordinator: routing and encoding only, no
// business logic.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"harmonia/internal/media"
	"harmonia/internal/player"
	"harmonia/internal/stream"
)

// Server bundles the control surface's dependencies.
type Server struct {
	lib         *media.Library
	players     *player.Manager
	coordinator *stream.Coordinator
	hub         *player.WSHub
	logger      *zap.Logger
	engine      *gin.Engine
}

// New builds the router.
func New(lib *media.Library, players *player.Manager, coordinator *stream.Coordinator, hub *player.WSHub, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		lib: lib, players: players, coordinator: coordinator, hub: hub, logger: logger,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLog())
	s.routes()
	return s
}

// Handler exposes the router for the http.Server in main.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/ws", gin.WrapH(s.hub))

	music := s.engine.Group("/music")
	registerEntity(music, "artists", s.lib.Artists)
	registerEntity(music, "albums", s.lib.Albums)
	registerEntity(music, "tracks", s.lib.Tracks)
	registerEntity(music, "playlists", s.lib.Playlists)
	registerEntity(music, "radios", s.lib.Radios)
	registerEntity(music, "audiobooks", s.lib.Audiobooks)
	registerEntity(music, "podcasts", s.lib.Podcasts)

	s.playerRoutes()
	s.streamRoutes()
}

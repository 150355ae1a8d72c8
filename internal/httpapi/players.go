package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"harmonia/internal/models"
)

func (s *Server) playerRoutes() {
	g := s.engine.Group("/players")

	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"players": s.players.All()})
	})

	g.GET("/:id", func(c *gin.Context) {
		p, ok := s.players.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown player"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	g.GET("/:id/queue", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.players.Queue(c.Param("id")).Snapshot())
	})

	g.POST("/:id/play_media", func(c *gin.Context) {
		var req struct {
			URI    string                 `json:"uri" binding:"required"`
			Option models.QueuePlayOption `json:"option"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Option == "" {
			req.Option = models.QueueReplace
		}
		if err := s.players.Queue(c.Param("id")).PlayMedia(c.Request.Context(), req.URI, req.Option); err != nil {
			c.JSON(statusForErr(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.POST("/:id/:command", func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		var err error
		switch c.Param("command") {
		case "play":
			err = s.players.Play(ctx, id)
		case "pause":
			err = s.players.Pause(ctx, id)
		case "play_pause":
			err = s.players.PlayPause(ctx, id)
		case "stop":
			err = s.players.Stop(ctx, id)
		case "next":
			err = s.players.Next(ctx, id)
		case "previous":
			err = s.players.Previous(ctx, id)
		case "power_on":
			err = s.players.PowerOn(ctx, id)
		case "power_off":
			err = s.players.PowerOff(ctx, id)
		case "power_toggle":
			err = s.players.PowerToggle(ctx, id)
		case "volume_up":
			err = s.players.VolumeUp(ctx, id)
		case "volume_down":
			err = s.players.VolumeDown(ctx, id)
		case "volume":
			level, perr := strconv.Atoi(c.Query("level"))
			if perr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "level query parameter required"})
				return
			}
			err = s.players.VolumeSet(ctx, id, level)
		case "volume_mute":
			err = s.players.VolumeMute(ctx, id, c.Query("muted") != "false")
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown command"})
			return
		}

		if err != nil {
			c.JSON(statusForErr(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

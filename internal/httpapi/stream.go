package httpapi

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"harmonia/internal/models"
)

// FileOpener is implemented by providers that can hand the endpoint a raw
// byte stream for a resolved item (the filesystem family).
type FileOpener interface {
	OpenFile(ctx context.Context, itemID string) (io.ReadCloser, error)
}

func (s *Server) streamRoutes() {
	// The per-item transport URL minted by the Stream Coordinator:
	// redirect when the details are a direct HTTP URL, proxy the
	// provider's byte stream otherwise (direct FILE details included).
	s.engine.GET("/stream/:player_id/:queue_item_id", func(c *gin.Context) {
		details, ok := s.coordinator.Details(c.Param("queue_item_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no stream resolved for this queue item"})
			return
		}

		if details.Direct && details.StreamType == models.StreamTypeHTTP {
			c.Redirect(http.StatusTemporaryRedirect, details.Path)
			return
		}

		p, err := s.lib.Registry().Get(details.Provider)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "stream provider offline"})
			return
		}
		opener, ok := p.(FileOpener)
		if !ok {
			c.JSON(http.StatusBadGateway, gin.H{"error": "provider cannot serve raw audio"})
			return
		}

		rc, err := opener.OpenFile(c.Request.Context(), details.ItemID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		defer rc.Close()

		c.Header("Content-Type", details.ContentType)
		if details.Size > 0 {
			c.Header("Content-Length", strconv.FormatInt(details.Size, 10))
		}
		written, err := io.Copy(c.Writer, rc)
		if err != nil {
			s.logger.Debug("stream proxy interrupted",
				zap.String("queue_item", details.QueueID),
				zap.Int64("bytes", written),
				zap.Error(err))
		}
	})
}

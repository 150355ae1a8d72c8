package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"harmonia/internal/media"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// registerEntity mounts the shared listing / get / library routes for one
// controller. A free function because Go
// methods cannot introduce type parameters.
func registerEntity[T models.MediaItem](g *gin.RouterGroup, name string, ctrl *media.Controller[T]) {
	g.GET("/"+name, func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		inLibrary := c.Query("in_library") == "true"

		page, err := ctrl.List(c.Request.Context(), inLibrary, c.Query("search"), limit, offset, c.Query("order_by"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, page)
	})

	g.GET("/"+name+"/:id", func(c *gin.Context) {
		providerID := c.DefaultQuery("provider", "database")
		item, err := ctrl.Get(c.Request.Context(), c.Param("id"), providerID, media.GetOptions{
			ForceRefresh: c.Query("force_refresh") == "true",
		})
		if err != nil {
			c.JSON(statusForErr(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, item)
	})

	g.POST("/"+name+"/:id/library", func(c *gin.Context) {
		dbID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a database id"})
			return
		}
		if err := ctrl.LibraryAdd(c.Request.Context(), dbID); err != nil {
			c.JSON(statusForErr(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.DELETE("/"+name+"/:id/library", func(c *gin.Context) {
		dbID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a database id"})
			return
		}
		if err := ctrl.LibraryRemove(c.Request.Context(), dbID); err != nil {
			c.JSON(statusForErr(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func statusForErr(err error) int {
	switch {
	case provider.Is(err, provider.KindMediaNotFound):
		return http.StatusNotFound
	case provider.Is(err, provider.KindUnsupportedFeature),
		provider.Is(err, provider.KindUnsupportedOperation):
		return http.StatusUnprocessableEntity
	case provider.Is(err, provider.KindLoginFailed),
		provider.Is(err, provider.KindProviderUnavailable):
		return http.StatusBadGateway
	case provider.Is(err, provider.KindRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

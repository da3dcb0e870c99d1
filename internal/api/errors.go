package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/auth"
	"github.com/jerilmartin/infini8graph/internal/instagram"
)

// writeError maps a view computation failure onto the API error contract:
// missing or expired credentials ask the client to re-authenticate, a remote
// API failure is reported as a bad gateway, everything else is internal.
func (r *Router) writeError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrReauthRequired) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":           "re-authentication required",
			"reauth_required": true,
		})
		return
	}

	var upstream *instagram.UpstreamError
	if errors.As(err, &upstream) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":         "upstream graph api error",
			"upstream_code": upstream.Code,
			"message":       upstream.Message,
		})
		return
	}

	r.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal error",
	})
}

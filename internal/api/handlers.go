package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/analytics"
)

// getAnalytics serves one computed view for one account
func (r *Router) getAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("id")
	view := c.Param("view")

	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		r.writeError(c, err)
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	svc, err := r.serviceFor(ctx, account)
	if err != nil {
		r.writeError(c, err)
		return
	}

	var result interface{}
	switch view {
	case "overview":
		result, err = svc.GetOverview(ctx)
	case "growth":
		result, err = svc.GetGrowth(ctx, c.Query("period"))
	case "best-time":
		result, err = svc.GetBestTimeToPost(ctx)
	case "hashtags":
		result, err = svc.GetHashtagAnalysis(ctx)
	case "content-intelligence":
		result, err = svc.GetContentIntelligence(ctx)
	case "reels":
		result, err = svc.GetReelsAnalytics(ctx)
	case "posts":
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
				return
			}
		}
		result, err = svc.GetPostsAnalytics(ctx, limit)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown view: %s", view)})
		return
	}

	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// getUnifiedOverview aggregates the overview across all of a user's accounts
func (r *Router) getUnifiedOverview(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("id")

	accounts, err := r.accounts.GetByUser(ctx, userID)
	if err != nil {
		r.writeError(c, err)
		return
	}

	services := make([]*analytics.Service, 0, len(accounts))
	for _, account := range accounts {
		svc, err := r.serviceFor(ctx, account)
		if err != nil {
			// An uninitialized service fails its fetch and is excluded from
			// the aggregate like any other per-account failure
			r.logger.Warn("Account initialization failed",
				zap.String("account_id", account.ID),
				zap.Error(err))
			svc = analytics.NewService(account.UserID, account.ID, r.tokens, r.newFetcher, r.metricCache)
		}
		services = append(services, svc)
	}

	c.JSON(http.StatusOK, analytics.ComputeUnifiedOverview(ctx, services))
}

// exportRequest selects the views and serialization format for an export
type exportRequest struct {
	Views  []string `json:"views"`
	Format string   `json:"format"`
}

var exportableViews = map[string]bool{
	analytics.MetricOverview: true,
	analytics.MetricPosts:    true,
}

// exportAnalytics computes the requested views and streams them as a download
func (r *Router) exportAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("id")

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Views) == 0 {
		req.Views = []string{analytics.MetricOverview, analytics.MetricPosts}
	}
	for _, view := range req.Views {
		if !exportableViews[view] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("view not exportable: %s", view)})
			return
		}
	}

	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		r.writeError(c, err)
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	svc, err := r.serviceFor(ctx, account)
	if err != nil {
		r.writeError(c, err)
		return
	}

	views := make(map[string]interface{}, len(req.Views))
	for _, view := range req.Views {
		switch view {
		case analytics.MetricOverview:
			views[view], err = svc.GetOverview(ctx)
		case analytics.MetricPosts:
			views[view], err = svc.GetPostsAnalytics(ctx, 0)
		}
		if err != nil {
			r.writeError(c, err)
			return
		}
	}

	out, contentType, err := analytics.Export(views, req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("analytics-%s.%s", accountID, exportExtension(req.Format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, out)
}

func exportExtension(format string) string {
	if format == analytics.FormatCSV {
		return "csv"
	}
	return "json"
}

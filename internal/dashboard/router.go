package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corp-qr-hub/internal/dashboard/handler"
	"github.com/corp-qr-hub/internal/dashboard/middleware"
)

// setupRouter configures routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	entryHandler *handler.EntryHandler,
	publicHandler *handler.PublicHandler,
	dashboardHandler *handler.DashboardHandler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		entries := v1.Group("/entries")
		{
			entries.GET("", entryHandler.List)
			entries.POST("", entryHandler.Create)
			entries.GET("/:id", entryHandler.GetByID)
			entries.PUT("/:id", entryHandler.Update)
			entries.DELETE("/:id", entryHandler.Delete)
			entries.PATCH("/:id/status", entryHandler.SetStatus)
			entries.POST("/:id/duplicate", entryHandler.Duplicate)
			entries.GET("/:id/scans", entryHandler.ListScans)
			entries.POST("/:id/scans", entryHandler.RecordScan)
			entries.GET("/:id/analytics", entryHandler.Analytics)
			entries.GET("/:id/qr.png", entryHandler.QRCode)
		}
	}

	// Pages a scanned code lands on
	r.GET("/p/:id", publicHandler.Show)
	r.GET("/p/:id/vcard", publicHandler.VCard)

	dash := r.Group("/dashboard")
	{
		dash.GET("", dashboardHandler.Show)
		dash.GET("/preview.png", dashboardHandler.Preview)
		dash.POST("/actions/:action", dashboardHandler.Action)
	}
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

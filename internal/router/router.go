package router

import (
	"github.com/gin-gonic/gin"

	"docstruct/internal/handler"
	"docstruct/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	docH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
	uiH *handler.UIHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Browser UI
	r.GET("/", uiH.Index)

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	documents := v1.Group("/documents")
	documents.POST("/process", docH.Process)
	documents.POST("/tables", docH.ExportTables)

	v1.GET("/artifacts/*key", docH.Download)

	return r
}

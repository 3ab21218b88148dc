package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docstruct/web"
)

// UIHandler serves the embedded browser UI.
type UIHandler struct{}

// NewUIHandler creates a new UIHandler.
func NewUIHandler() *UIHandler {
	return &UIHandler{}
}

// Index handles GET /.
func (h *UIHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

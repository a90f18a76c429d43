// internal/handler/pages.go
package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"networth-tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the static frontend for anything the API routes did not match.
type PageHandler struct {
	publicDir string
}

func NewPageHandler(publicDir string) *PageHandler {
	return &PageHandler{publicDir: publicDir}
}

// Fallback answers unknown /api paths with JSON 404. Other GETs get the file
// under publicDir if one exists, otherwise the dashboard for a signed-in
// caller and the landing page for everyone else.
func (h *PageHandler) Fallback(c *gin.Context) {
	p := c.Request.URL.Path
	if p == "/api" || strings.HasPrefix(p, "/api/") || h.publicDir == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	file := filepath.Join(h.publicDir, filepath.FromSlash(path.Clean("/"+p)))
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		c.File(file)
		return
	}

	page := "index.html"
	if middleware.UserID(c) != 0 {
		page = "dashboard.html"
	}
	c.File(filepath.Join(h.publicDir, page))
}

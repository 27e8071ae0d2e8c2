package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quetzal/repository"
	"quetzal/services"
	"quetzal/usecase"
	"quetzal/utils"
)

type HealthHandler struct {
	backend   repository.CatalogBackend
	catalog   *usecase.Catalog
	blacklist services.TokenBlacklist
	uploadDir string
	logger    *zap.Logger
}

func NewHealthHandler(backend repository.CatalogBackend, catalog *usecase.Catalog, blacklist services.TokenBlacklist, uploadDir string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		backend:   backend,
		catalog:   catalog,
		blacklist: blacklist,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Health reports store reachability and host resource usage. It answers 503
// when the store cannot be reached.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":          "ok",
		"store":           "ok",
		"catalog_papers":  len(h.catalog.All()),
		"catalog_version": h.catalog.Version(),
		"time":            time.Now().UTC(),
	}

	if err := h.backend.Ping(ctx); err != nil {
		h.logger.Warn("health check: store unreachable", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = err.Error()
	}

	// Redis only backs token revocation, so losing it does not degrade status.
	if r, ok := h.blacklist.(interface{ IsConnected(context.Context) bool }); ok {
		body["redis"] = "ok"
		if !r.IsConnected(ctx) {
			body["redis"] = "unreachable"
		}
	}

	body["system"] = utils.GetSystemStats(ctx, h.uploadDir)

	c.JSON(status, body)
}

// Welcome lists the public entry points.
func Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Quetzal paper server is running",
		"endpoints": gin.H{
			"papers":   "GET /api/papers",
			"upload":   "POST /api/upload",
			"delete":   "POST /api/del",
			"download": "GET /download/:paperId/:filename",
			"health":   "GET /health",
		},
	})
}

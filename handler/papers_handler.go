package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quetzal/dto"
	"quetzal/model"
	"quetzal/search"
	"quetzal/usecase"
	"quetzal/utils"
)

type PapersHandler struct {
	catalog  *usecase.Catalog
	papers   *usecase.PaperService
	settings WatchSettings
	logger   *zap.Logger
}

func NewPapersHandler(catalog *usecase.Catalog, papers *usecase.PaperService, settings WatchSettings, logger *zap.Logger) *PapersHandler {
	return &PapersHandler{
		catalog:  catalog,
		papers:   papers,
		settings: settings.withDefaults(),
		logger:   logger,
	}
}

// List runs the query in ?q= with the filters named by repeated ?filter=.
func (h *PapersHandler) List(c *gin.Context) {
	query := c.Query("q")
	filters, err := search.ParseFilters(c.QueryArray("filter"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	h.respondMatch(c, query, filters)
}

func (h *PapersHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	filters := search.DefaultFilters()
	if req.Filters != nil {
		filters = req.Filters.Normalize()
	}
	h.respondMatch(c, req.Query, filters)
}

// ToggleFilter applies one toggle to the posted filter state and returns the
// resulting state.
func (h *PapersHandler) ToggleFilter(c *gin.Context) {
	var req dto.ToggleFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	current := search.DefaultFilters()
	if req.Filters != nil {
		current = *req.Filters
	}
	next, err := search.Toggle(current, req.Key)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	utils.Success(c, next)
}

func (h *PapersHandler) Get(c *gin.Context) {
	paper, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		utils.NotFound(c, "Paper not found")
		return
	}
	utils.Success(c, paper)
}

func (h *PapersHandler) Create(c *gin.Context) {
	var in dto.PaperInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	paper, err := h.papers.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "create", err)
		return
	}
	h.logger.Info("paper created", zap.String("paper_id", paper.PaperID), zap.String("user", c.GetString("username")))
	utils.Created(c, paper)
}

func (h *PapersHandler) Update(c *gin.Context) {
	var in dto.PaperInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	paper, err := h.papers.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, "update", err)
		return
	}
	utils.Success(c, paper)
}

func (h *PapersHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.papers.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, "delete", err)
		return
	}
	h.logger.Info("paper deleted", zap.String("paper_id", id), zap.String("user", c.GetString("username")))
	c.JSON(http.StatusOK, gin.H{"message": "Paper deleted successfully", "paperID": id})
}

// ReplaceAll swaps the whole catalog for the posted list.
func (h *PapersHandler) ReplaceAll(c *gin.Context) {
	var papers []model.Paper
	if err := c.ShouldBindJSON(&papers); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}
	if papers == nil {
		papers = []model.Paper{}
	}

	if err := h.papers.ReplaceAll(c.Request.Context(), papers); err != nil {
		h.writeError(c, "replace", err)
		return
	}
	utils.Success(c, dto.NewPapersResponse(h.catalog.All(), h.catalog.Version(), "", search.DefaultFilters()))
}

// Reset discards local state and reloads from the store.
func (h *PapersHandler) Reset(c *gin.Context) {
	h.catalog.Reset(c.Request.Context())
	utils.Success(c, dto.NewPapersResponse(h.catalog.All(), h.catalog.Version(), "", search.DefaultFilters()))
}

func (h *PapersHandler) respondMatch(c *gin.Context, query string, filters search.Filters) {
	version := h.catalog.Version()
	results := search.Match(h.catalog.All(), query, filters)
	utils.Success(c, dto.NewPapersResponse(results, version, query, filters))
}

func (h *PapersHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidPaper):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, usecase.ErrPaperNotFound):
		utils.NotFound(c, "Paper not found")
	case errors.Is(err, usecase.ErrDuplicatePaperID):
		utils.Conflict(c, err.Error())
	default:
		h.logger.Error("catalog write failed", zap.String("operation", op), zap.Error(err))
		utils.InternalError(c, "Failed to save catalog")
	}
}

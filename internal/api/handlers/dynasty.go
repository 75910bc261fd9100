package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/utils"
)

type DynastyHandler struct {
	manager *services.SeasonManager
}

func NewDynastyHandler(manager *services.SeasonManager) *DynastyHandler {
	return &DynastyHandler{manager: manager}
}

// CreateDynasty registers a new league from a team list and conference map.
func (h *DynastyHandler) CreateDynasty(c *gin.Context) {
	var req struct {
		Name        string                `json:"name" binding:"required"`
		StartYear   int                   `json:"start_year" binding:"required,min=1900"`
		Teams       []*engine.Team        `json:"teams" binding:"required,min=2"`
		Conferences map[string][]string   `json:"conferences"`
		Config      engine.ScheduleConfig `json:"config"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	d, err := h.manager.CreateDynasty(req.Name, req.Teams, req.Conferences, req.Config, req.StartYear)
	if err != nil {
		utils.SendValidationError(c, "Failed to create dynasty", err.Error())
		return
	}
	utils.SendSuccess(c, d)
}

// ListDynasties returns every registered league.
func (h *DynastyHandler) ListDynasties(c *gin.Context) {
	list, err := h.manager.ListDynasties()
	if err != nil {
		utils.SendInternalError(c, "Failed to list dynasties")
		return
	}
	utils.SendSuccess(c, list)
}

// GetDynasty returns one league.
func (h *DynastyHandler) GetDynasty(c *gin.Context) {
	d, err := h.manager.GetDynasty(c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.SendNotFound(c, "Dynasty not found")
			return
		}
		utils.SendInternalError(c, "Failed to load dynasty")
		return
	}
	utils.SendSuccess(c, d)
}

// ListSeasons returns a dynasty's season history, oldest first.
func (h *DynastyHandler) ListSeasons(c *gin.Context) {
	list, err := h.manager.ListSeasons(c.Param("id"))
	if err != nil {
		utils.SendInternalError(c, "Failed to list seasons")
		return
	}
	utils.SendSuccess(c, list)
}

// AdvanceDynasty closes the completed year and opens the next season.
func (h *DynastyHandler) AdvanceDynasty(c *gin.Context) {
	rec, season, err := h.manager.AdvanceDynasty(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			utils.SendNotFound(c, "Dynasty not found")
		case errors.Is(err, services.ErrSeasonInProgress):
			utils.SendConflict(c, err.Error())
		default:
			utils.SendInternalError(c, "Failed to advance dynasty: "+err.Error())
		}
		return
	}
	utils.SendSuccess(c, gin.H{
		"season_id": rec.ID,
		"year":      season.Year,
		"weeks":     season.TotalWeeks(),
	})
}

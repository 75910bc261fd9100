package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/config"
	"github.com/stitts-dev/viperball-sim/pkg/utils"
)

type PostseasonHandler struct {
	manager *services.SeasonManager
	cfg     *config.Config
}

func NewPostseasonHandler(manager *services.SeasonManager, cfg *config.Config) *PostseasonHandler {
	return &PostseasonHandler{manager: manager, cfg: cfg}
}

// GetPlayoffField previews the current playoff field without playing any
// games. Pass ?size= to override the configured bracket size.
func (h *PostseasonHandler) GetPlayoffField(c *gin.Context) {
	season, err := h.manager.GetSeason(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.SendNotFound(c, "Season not found")
			return
		}
		utils.SendInternalError(c, "Failed to load season")
		return
	}

	size := h.cfg.PlayoffSize
	if sizeStr := c.Query("size"); sizeStr != "" {
		size, err = strconv.Atoi(sizeStr)
		if err != nil {
			utils.SendValidationError(c, "Invalid playoff size", err.Error())
			return
		}
	}

	field, err := season.GetPlayoffTeams(size)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidPlayoffSize) {
			utils.SendValidationError(c, "Unsupported playoff size", err.Error())
			return
		}
		utils.SendInternalError(c, "Failed to select playoff field")
		return
	}
	utils.SendSuccess(c, gin.H{
		"size":      len(field),
		"field":     field,
		"champions": season.ConferenceChampions(),
	})
}

// SimulatePostseason resolves the bracket and the bowl slate.
func (h *PostseasonHandler) SimulatePostseason(c *gin.Context) {
	var req struct {
		PlayoffSize int `json:"playoff_size"`
		BowlCount   int `json:"bowl_count"`
	}
	// Body is optional; server defaults apply.
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if req.PlayoffSize == 0 {
		req.PlayoffSize = h.cfg.PlayoffSize
	}
	if req.BowlCount == 0 {
		req.BowlCount = h.cfg.BowlCount
	}

	season, err := h.manager.SimulatePostseason(c.Request.Context(), c.Param("id"), req.PlayoffSize, req.BowlCount)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			utils.SendNotFound(c, "Season not found")
		case errors.Is(err, services.ErrSeasonInProgress):
			utils.SendConflict(c, err.Error())
		case errors.Is(err, engine.ErrInvalidPlayoffSize):
			utils.SendValidationError(c, "Unsupported playoff size", err.Error())
		default:
			utils.SendInternalError(c, "Postseason failed: "+err.Error())
		}
		return
	}
	utils.SendSuccess(c, gin.H{
		"champion": season.Champion,
		"field":    season.PlayoffField,
		"bracket":  season.PlayoffBracket,
		"bowls":    season.BowlGames,
	})
}

// GetBracket returns the played playoff bracket.
func (h *PostseasonHandler) GetBracket(c *gin.Context) {
	season, err := h.manager.GetSeason(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.SendNotFound(c, "Season not found")
			return
		}
		utils.SendInternalError(c, "Failed to load season")
		return
	}
	if len(season.PlayoffBracket) == 0 {
		utils.SendNotFound(c, "Playoff has not been played")
		return
	}
	utils.SendSuccess(c, gin.H{
		"field":    season.PlayoffField,
		"bracket":  season.PlayoffBracket,
		"champion": season.Champion,
	})
}

// GetBowls returns the bowl slate.
func (h *PostseasonHandler) GetBowls(c *gin.Context) {
	season, err := h.manager.GetSeason(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.SendNotFound(c, "Season not found")
			return
		}
		utils.SendInternalError(c, "Failed to load season")
		return
	}
	utils.SendSuccess(c, season.BowlGames)
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/utils"
)

type SimulationHandler struct {
	manager  *services.SeasonManager
	autoplay *services.AutoplayService
}

func NewSimulationHandler(manager *services.SeasonManager, autoplay *services.AutoplayService) *SimulationHandler {
	return &SimulationHandler{manager: manager, autoplay: autoplay}
}

// SimulateWeek plays the season's next week.
func (h *SimulationHandler) SimulateWeek(c *gin.Context) {
	seasonID := c.Param("id")
	week, games, err := h.manager.SimulateWeek(c.Request.Context(), seasonID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			utils.SendNotFound(c, "Season not found")
		case errors.Is(err, engine.ErrSeasonComplete):
			utils.SendConflict(c, "Regular season already complete")
		default:
			utils.SendInternalError(c, "Simulation failed: "+err.Error())
		}
		return
	}
	utils.SendSuccess(c, gin.H{
		"week":  week,
		"games": games,
	})
}

// SimulateSeason plays out every remaining regular-season week.
func (h *SimulationHandler) SimulateSeason(c *gin.Context) {
	seasonID := c.Param("id")
	season, err := h.manager.SimulateSeason(c.Request.Context(), seasonID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.SendNotFound(c, "Season not found")
			return
		}
		utils.SendInternalError(c, "Simulation failed: "+err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{
		"year":        season.Year,
		"weeks":       season.TotalWeeks(),
		"polls":       len(season.WeeklyPolls),
		"latest_poll": season.LatestPoll(),
	})
}

// EnableAutoplay enrolls the season so the cron ticker plays a week at a time.
func (h *SimulationHandler) EnableAutoplay(c *gin.Context) {
	if h.autoplay == nil {
		utils.SendConflict(c, "Autoplay is disabled on this server")
		return
	}
	seasonID := c.Param("id")
	if _, err := h.manager.GetSeason(c.Request.Context(), seasonID); err != nil {
		utils.SendNotFound(c, "Season not found")
		return
	}
	h.autoplay.Enroll(seasonID)
	utils.SendSuccess(c, gin.H{"autoplay": true})
}

// DisableAutoplay withdraws the season from the rotation.
func (h *SimulationHandler) DisableAutoplay(c *gin.Context) {
	if h.autoplay == nil {
		utils.SendConflict(c, "Autoplay is disabled on this server")
		return
	}
	h.autoplay.Withdraw(c.Param("id"))
	utils.SendSuccess(c, gin.H{"autoplay": false})
}

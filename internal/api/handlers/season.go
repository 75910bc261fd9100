package handlers

import (
	"errors"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/utils"
)

type SeasonHandler struct {
	manager *services.SeasonManager
}

func NewSeasonHandler(manager *services.SeasonManager) *SeasonHandler {
	return &SeasonHandler{manager: manager}
}

func (h *SeasonHandler) loadSeason(c *gin.Context) (*engine.Season, bool) {
	season, err := h.manager.GetSeason(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.SendNotFound(c, "Season not found")
		} else {
			utils.SendInternalError(c, "Failed to load season")
		}
		return nil, false
	}
	return season, true
}

// StartSeason generates a fresh season for the dynasty's current year.
func (h *SeasonHandler) StartSeason(c *gin.Context) {
	rec, season, err := h.manager.StartSeason(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.SendNotFound(c, "Dynasty not found")
			return
		}
		utils.SendValidationError(c, "Failed to start season", err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{
		"season_id": rec.ID,
		"year":      season.Year,
		"weeks":     season.TotalWeeks(),
		"games":     len(season.Schedule),
	})
}

// GetSeason returns the season's current state overview.
func (h *SeasonHandler) GetSeason(c *gin.Context) {
	season, ok := h.loadSeason(c)
	if !ok {
		return
	}
	utils.SendSuccess(c, gin.H{
		"year":             season.Year,
		"current_week":     season.CurrentWeek(),
		"total_weeks":      season.TotalWeeks(),
		"regular_complete": season.RegularSeasonComplete(),
		"champion":         season.Champion,
		"teams":            len(season.Teams),
		"conferences":      season.Conferences,
	})
}

// standingsRow is the per-team line in the standings response.
type standingsRow struct {
	Team            string  `json:"team"`
	Conference      string  `json:"conference"`
	Record          string  `json:"record"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	ConfWins        int     `json:"conf_wins"`
	ConfLosses      int     `json:"conf_losses"`
	PointsFor       float64 `json:"points_for"`
	PointsAgainst   float64 `json:"points_against"`
	NoFlyZone       bool    `json:"no_fly_zone"`
	BrickWall       bool    `json:"brick_wall"`
	TurnoverMachine bool    `json:"turnover_machine"`
}

// GetStandings returns every team's record, best first. Pass ?conference=
// to filter to one conference.
func (h *SeasonHandler) GetStandings(c *gin.Context) {
	season, ok := h.loadSeason(c)
	if !ok {
		return
	}
	confFilter := c.Query("conference")

	rows := make([]standingsRow, 0, len(season.Standings))
	for name, rec := range season.Standings {
		team := season.Teams[name]
		if team == nil || team.IsFCS {
			continue
		}
		if confFilter != "" && team.Conference != confFilter {
			continue
		}
		rows = append(rows, standingsRow{
			Team:            name,
			Conference:      team.Conference,
			Record:          rec.RecordString(),
			Wins:            rec.Wins,
			Losses:          rec.Losses,
			ConfWins:        rec.ConfWins,
			ConfLosses:      rec.ConfLosses,
			PointsFor:       rec.PointsFor,
			PointsAgainst:   rec.PointsAgainst,
			NoFlyZone:       rec.HasNoFlyZone(),
			BrickWall:       rec.HasBrickWall(),
			TurnoverMachine: rec.HasTurnoverMachine(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := season.Standings[rows[i].Team], season.Standings[rows[j].Team]
		if a.WinPct() != b.WinPct() {
			return a.WinPct() > b.WinPct()
		}
		if a.PointDiff() != b.PointDiff() {
			return a.PointDiff() > b.PointDiff()
		}
		return rows[i].Team < rows[j].Team
	})
	utils.SendSuccess(c, rows)
}

// GetSchedule returns the season's games. Pass ?week= for one week, or
// ?team= for one team's slate.
func (h *SeasonHandler) GetSchedule(c *gin.Context) {
	season, ok := h.loadSeason(c)
	if !ok {
		return
	}

	games := season.Schedule
	if weekStr := c.Query("week"); weekStr != "" {
		week, err := strconv.Atoi(weekStr)
		if err != nil {
			utils.SendValidationError(c, "Invalid week", err.Error())
			return
		}
		games = season.GamesInWeek(week)
	}
	if team := c.Query("team"); team != "" {
		filtered := make([]*engine.Game, 0, len(games))
		for _, g := range games {
			if g.Involves(team) {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}
	utils.SendSuccess(c, games)
}

// GetPolls returns every released poll, or a single one via ?week=.
func (h *SeasonHandler) GetPolls(c *gin.Context) {
	season, ok := h.loadSeason(c)
	if !ok {
		return
	}

	if weekStr := c.Query("week"); weekStr != "" {
		week, err := strconv.Atoi(weekStr)
		if err != nil {
			utils.SendValidationError(c, "Invalid week", err.Error())
			return
		}
		for _, poll := range season.WeeklyPolls {
			if poll.Week == week {
				utils.SendSuccess(c, poll)
				return
			}
		}
		utils.SendNotFound(c, "No poll released for that week")
		return
	}
	utils.SendSuccess(c, season.WeeklyPolls)
}

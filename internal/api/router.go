package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/viperball-sim/internal/api/handlers"
	"github.com/stitts-dev/viperball-sim/internal/api/middleware"
	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/config"
)

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(group *gin.RouterGroup, manager *services.SeasonManager, autoplay *services.AutoplayService, limiter *services.SimRateLimiter, cfg *config.Config) {
	dynastyHandler := handlers.NewDynastyHandler(manager)
	seasonHandler := handlers.NewSeasonHandler(manager)
	simulationHandler := handlers.NewSimulationHandler(manager, autoplay)
	postseasonHandler := handlers.NewPostseasonHandler(manager, cfg)

	// Dynasty endpoints
	group.POST("/dynasties", dynastyHandler.CreateDynasty)
	group.GET("/dynasties", dynastyHandler.ListDynasties)
	group.GET("/dynasties/:id", dynastyHandler.GetDynasty)
	group.GET("/dynasties/:id/seasons", dynastyHandler.ListSeasons)
	group.POST("/dynasties/:id/seasons", seasonHandler.StartSeason)
	group.POST("/dynasties/:id/advance", dynastyHandler.AdvanceDynasty)

	// Season read endpoints
	group.GET("/seasons/:id", seasonHandler.GetSeason)
	group.GET("/seasons/:id/standings", seasonHandler.GetStandings)
	group.GET("/seasons/:id/schedule", seasonHandler.GetSchedule)
	group.GET("/seasons/:id/polls", seasonHandler.GetPolls)
	group.GET("/seasons/:id/playoffs", postseasonHandler.GetPlayoffField)
	group.GET("/seasons/:id/bracket", postseasonHandler.GetBracket)
	group.GET("/seasons/:id/bowls", postseasonHandler.GetBowls)

	// Simulation endpoints, throttled per client
	simGroup := group.Group("/seasons/:id")
	simGroup.Use(middleware.SimRateLimit(limiter))
	{
		simGroup.POST("/simulate/week", simulationHandler.SimulateWeek)
		simGroup.POST("/simulate/season", simulationHandler.SimulateSeason)
		simGroup.POST("/simulate/postseason", postseasonHandler.SimulatePostseason)
		simGroup.POST("/autoplay/enable", simulationHandler.EnableAutoplay)
		simGroup.POST("/autoplay/disable", simulationHandler.DisableAutoplay)
	}
}

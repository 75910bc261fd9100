package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/config"
	"github.com/stitts-dev/viperball-sim/pkg/database"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "league.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := models.NewSeasonStore(db)
	require.NoError(t, store.Migrate())

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	engineFor := func(seed uint64) engine.GameEngine {
		return engine.NewFastSim(seed, nil)
	}
	manager := services.NewSeasonManager(store, nil, nil, engineFor, engine.ScheduleConfig{}, logger)
	limiter := services.NewSimRateLimiter(1000, 1000)
	cfg := &config.Config{PlayoffSize: 4, BowlCount: 2}

	router := gin.New()
	apiV1 := router.Group("/api/v1")
	SetupRoutes(apiV1, manager, nil, limiter, cfg)
	return router
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func createDynastyRequest() gin.H {
	teams := []gin.H{}
	for i := 1; i <= 4; i++ {
		teams = append(teams, gin.H{
			"name":       fmt.Sprintf("East %02d", i),
			"conference": "Viper East",
			"prestige":   80 - i*5,
		})
	}
	for i := 1; i <= 4; i++ {
		teams = append(teams, gin.H{
			"name":       fmt.Sprintf("West %02d", i),
			"conference": "Viper West",
			"prestige":   78 - i*5,
		})
	}
	return gin.H{
		"name":       "API Test League",
		"start_year": 2025,
		"teams":      teams,
		"conferences": gin.H{
			"Viper East": []string{"East 01", "East 02", "East 03", "East 04"},
			"Viper West": []string{"West 01", "West 02", "West 03", "West 04"},
		},
	}
}

func TestCreateDynastyValidatesBody(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/dynasties", gin.H{"name": "No Teams"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSeasonLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	// Create dynasty
	w, resp := doRequest(t, router, http.MethodPost, "/api/v1/dynasties", createDynastyRequest())
	require.Equal(t, http.StatusOK, w.Code)
	var dynasty struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dynasty))
	require.NotEmpty(t, dynasty.ID)

	// Start season
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/dynasties/"+dynasty.ID+"/seasons", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var started struct {
		SeasonID string `json:"season_id"`
		Year     int    `json:"year"`
		Weeks    int    `json:"weeks"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &started))
	assert.Equal(t, 2025, started.Year)
	assert.Greater(t, started.Weeks, 0)

	// Simulate one week
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/seasons/"+started.SeasonID+"/simulate/week", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var weekResult struct {
		Week  int           `json:"week"`
		Games []engine.Game `json:"games"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &weekResult))
	assert.Equal(t, 1, weekResult.Week)
	assert.NotEmpty(t, weekResult.Games)

	// Standings reflect the played games
	w, resp = doRequest(t, router, http.MethodGet, "/api/v1/seasons/"+started.SeasonID+"/standings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var standings []struct {
		Team   string `json:"team"`
		Wins   int    `json:"wins"`
		Losses int    `json:"losses"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &standings))
	assert.Len(t, standings, 8)

	// Poll released for week 1
	w, resp = doRequest(t, router, http.MethodGet, "/api/v1/seasons/"+started.SeasonID+"/polls?week=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var poll engine.WeeklyPoll
	require.NoError(t, json.Unmarshal(resp.Data, &poll))
	assert.Equal(t, 1, poll.Week)
	assert.NotEmpty(t, poll.Rankings)

	// Finish the regular season
	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/seasons/"+started.SeasonID+"/simulate/season", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Playoff field preview
	w, resp = doRequest(t, router, http.MethodGet, "/api/v1/seasons/"+started.SeasonID+"/playoffs?size=4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var field struct {
		Size  int                 `json:"size"`
		Field []engine.PlayoffBid `json:"field"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &field))
	assert.Equal(t, 4, field.Size)

	// Play the postseason
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/seasons/"+started.SeasonID+"/simulate/postseason", gin.H{
		"playoff_size": 4,
		"bowl_count":   2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var post struct {
		Champion string         `json:"champion"`
		Bracket  []*engine.Game `json:"bracket"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &post))
	assert.NotEmpty(t, post.Champion)
	assert.Len(t, post.Bracket, 3)

	// Advance into the next year
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/dynasties/"+dynasty.ID+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var advanced struct {
		Year int `json:"year"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &advanced))
	assert.Equal(t, 2026, advanced.Year)
}

func TestUnknownSeasonReturns404(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doRequest(t, router, http.MethodGet, "/api/v1/seasons/missing/standings", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSimulateWeekAfterSeasonComplete(t *testing.T) {
	router := newTestRouter(t)

	_, resp := doRequest(t, router, http.MethodPost, "/api/v1/dynasties", createDynastyRequest())
	var dynasty struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dynasty))

	_, resp = doRequest(t, router, http.MethodPost, "/api/v1/dynasties/"+dynasty.ID+"/seasons", nil)
	var started struct {
		SeasonID string `json:"season_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &started))

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/seasons/"+started.SeasonID+"/simulate/season", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/seasons/"+started.SeasonID+"/simulate/week", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPostseasonBeforeSeasonEndConflicts(t *testing.T) {
	router := newTestRouter(t)

	_, resp := doRequest(t, router, http.MethodPost, "/api/v1/dynasties", createDynastyRequest())
	var dynasty struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dynasty))

	_, resp = doRequest(t, router, http.MethodPost, "/api/v1/dynasties/"+dynasty.ID+"/seasons", nil)
	var started struct {
		SeasonID string `json:"season_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &started))

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/seasons/"+started.SeasonID+"/simulate/postseason", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUnsupportedPlayoffSizeRejected(t *testing.T) {
	router := newTestRouter(t)

	_, resp := doRequest(t, router, http.MethodPost, "/api/v1/dynasties", createDynastyRequest())
	var dynasty struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dynasty))

	_, resp = doRequest(t, router, http.MethodPost, "/api/v1/dynasties/"+dynasty.ID+"/seasons", nil)
	var started struct {
		SeasonID string `json:"season_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &started))

	w, _ := doRequest(t, router, http.MethodGet, "/api/v1/seasons/"+started.SeasonID+"/playoffs?size=6", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimRateLimiting(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "league.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := models.NewSeasonStore(db)
	require.NoError(t, store.Migrate())

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	manager := services.NewSeasonManager(store, nil, nil, func(seed uint64) engine.GameEngine {
		return engine.NewFastSim(seed, nil)
	}, engine.ScheduleConfig{}, logger)

	// One request allowed, then throttled.
	limiter := services.NewSimRateLimiter(0.001, 1)
	cfg := &config.Config{PlayoffSize: 4}

	router := gin.New()
	SetupRoutes(router.Group("/api/v1"), manager, nil, limiter, cfg)

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/seasons/any/simulate/week", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "first request passes the limiter")

	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/seasons/any/simulate/week", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stitts-dev/viperball-sim/internal/engine"
)

// SeasonRecord is the persisted form of one simulated season. The engine
// state is stored as JSON documents so a season can be reloaded mid-year
// and simulation resumed exactly where it stopped.
type SeasonRecord struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	DynastyID string `gorm:"type:uuid;index" json:"dynasty_id"`
	Year      int    `gorm:"not null;index" json:"year"`

	CurrentWeek int    `json:"current_week"` // 0 = regular season complete
	Champion    string `json:"champion,omitempty"`
	Complete    bool   `gorm:"default:false" json:"complete"`

	State datatypes.JSON `gorm:"type:jsonb" json:"state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SeasonRecord) TableName() string {
	return "seasons"
}

func (r *SeasonRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// NewSeasonRecord snapshots a live season for storage.
func NewSeasonRecord(dynastyID string, season *engine.Season) (*SeasonRecord, error) {
	r := &SeasonRecord{DynastyID: dynastyID}
	if err := r.CaptureSeason(season); err != nil {
		return nil, err
	}
	return r, nil
}

// CaptureSeason refreshes the stored state from a live season.
func (r *SeasonRecord) CaptureSeason(season *engine.Season) error {
	state, err := json.Marshal(season)
	if err != nil {
		return fmt.Errorf("failed to serialize season: %w", err)
	}
	r.Year = season.Year
	r.CurrentWeek = season.CurrentWeek()
	r.Champion = season.Champion
	r.Complete = season.RegularSeasonComplete() && season.Champion != ""
	r.State = datatypes.JSON(state)
	return nil
}

// Season rebuilds the engine season from the stored state. The caller must
// Rehydrate the result with a game engine before simulating further.
func (r *SeasonRecord) Season() (*engine.Season, error) {
	var season engine.Season
	if err := json.Unmarshal(r.State, &season); err != nil {
		return nil, fmt.Errorf("failed to deserialize season %s: %w", r.ID, err)
	}
	return &season, nil
}

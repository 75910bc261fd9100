package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stitts-dev/viperball-sim/pkg/database"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SeasonStore is the persistence layer for dynasties and their seasons.
type SeasonStore struct {
	db *database.DB
}

func NewSeasonStore(db *database.DB) *SeasonStore {
	return &SeasonStore{db: db}
}

// Migrate creates or updates the schema for all league tables.
func (s *SeasonStore) Migrate() error {
	return s.db.AutoMigrate(&Dynasty{}, &SeasonRecord{})
}

// CreateDynasty persists a new dynasty.
func (s *SeasonStore) CreateDynasty(d *Dynasty) error {
	if err := s.db.Create(d).Error; err != nil {
		return fmt.Errorf("failed to create dynasty: %w", err)
	}
	return nil
}

// GetDynasty loads a dynasty by ID.
func (s *SeasonStore) GetDynasty(id string) (*Dynasty, error) {
	var d Dynasty
	if err := s.db.First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("dynasty %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load dynasty: %w", err)
	}
	return &d, nil
}

// ListDynasties returns all dynasties, newest first.
func (s *SeasonStore) ListDynasties() ([]Dynasty, error) {
	var list []Dynasty
	if err := s.db.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list dynasties: %w", err)
	}
	return list, nil
}

// UpdateDynasty saves dynasty changes.
func (s *SeasonStore) UpdateDynasty(d *Dynasty) error {
	if err := s.db.Save(d).Error; err != nil {
		return fmt.Errorf("failed to update dynasty: %w", err)
	}
	return nil
}

// SaveSeason upserts a season record.
func (s *SeasonStore) SaveSeason(r *SeasonRecord) error {
	if err := s.db.Save(r).Error; err != nil {
		return fmt.Errorf("failed to save season: %w", err)
	}
	return nil
}

// GetSeason loads a season record by ID.
func (s *SeasonStore) GetSeason(id string) (*SeasonRecord, error) {
	var r SeasonRecord
	if err := s.db.First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load season: %w", err)
	}
	return &r, nil
}

// SeasonsForDynasty lists a dynasty's seasons ordered by year.
func (s *SeasonStore) SeasonsForDynasty(dynastyID string) ([]SeasonRecord, error) {
	var list []SeasonRecord
	if err := s.db.Where("dynasty_id = ?", dynastyID).Order("year ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	return list, nil
}

// LatestSeason returns the most recent season for a dynasty, or ErrNotFound.
func (s *SeasonStore) LatestSeason(dynastyID string) (*SeasonRecord, error) {
	var r SeasonRecord
	err := s.db.Where("dynasty_id = ?", dynastyID).Order("year DESC").First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("dynasty %s has no seasons: %w", dynastyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load latest season: %w", err)
	}
	return &r, nil
}

// DeleteSeason removes a season record.
func (s *SeasonStore) DeleteSeason(id string) error {
	if err := s.db.Delete(&SeasonRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}
	return nil
}

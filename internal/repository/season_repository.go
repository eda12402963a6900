package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
)

// SeasonRepository handles season settings and archives.
type SeasonRepository struct {
	db *DB
}

// NewSeasonRepository creates a new season repository.
func NewSeasonRepository(db *DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// GetActiveSettings returns the active season settings, creating a default
// row on first access.
func (r *SeasonRepository) GetActiveSettings(defaultName string) (*models.SeasonSettings, error) {
	var settings models.SeasonSettings
	err := r.db.Where("is_active = ?", true).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get season settings: %w", err)
	}

	settings = models.SeasonSettings{Name: defaultName, IsActive: true}
	if err := r.db.Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create season settings: %w", err)
	}
	return &settings, nil
}

// UpdateSettings saves season settings.
func (r *SeasonRepository) UpdateSettings(settings *models.SeasonSettings) error {
	if err := r.db.Save(settings).Error; err != nil {
		return fmt.Errorf("failed to update season settings: %w", err)
	}
	return nil
}

// CreateArchive stores a season snapshot with its entries.
func (r *SeasonRepository) CreateArchive(archive *models.SeasonArchive) error {
	if err := r.db.Create(archive).Error; err != nil {
		return fmt.Errorf("failed to create season archive: %w", err)
	}
	return nil
}

// GetArchive retrieves an archive with its leaderboard entries in position
// order.
func (r *SeasonRepository) GetArchive(id uint) (*models.SeasonArchive, error) {
	var archive models.SeasonArchive
	err := r.db.
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&archive, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get season archive %d: %w", id, err)
	}
	return &archive, nil
}

// ListArchives retrieves all archives, newest first, without entries.
func (r *SeasonRepository) ListArchives() ([]models.SeasonArchive, error) {
	var archives []models.SeasonArchive
	if err := r.db.Order("closed_at DESC").Find(&archives).Error; err != nil {
		return nil, fmt.Errorf("failed to list season archives: %w", err)
	}
	return archives, nil
}

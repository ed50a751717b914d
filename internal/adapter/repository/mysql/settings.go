package mysql

import (
	"context"
	"errors"

	"quorum-lending/internal/domain/platform"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) *SettingsRepository { return &SettingsRepository{db: db} }

func (r *SettingsRepository) Get(ctx context.Context) (*platform.Settings, error) {
	return r.get(r.db.WithContext(ctx))
}

func (r *SettingsRepository) GetForUpdate(ctx context.Context) (*platform.Settings, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)))
}

func (r *SettingsRepository) get(db *gorm.DB) (*platform.Settings, error) {
	var out platform.Settings
	if err := db.Where("id = ?", platform.SettingsRowID).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platform.ErrNotInitialized
		}
		return nil, err
	}
	return &out, nil
}

func (r *SettingsRepository) Init(ctx context.Context, s *platform.Settings) (*platform.Settings, error) {
	s.ID = platform.SettingsRowID
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(s).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

func (r *SettingsRepository) Save(ctx context.Context, s *platform.Settings) error {
	return r.db.WithContext(ctx).Save(s).Error
}

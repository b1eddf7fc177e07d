package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"changewatch/triggerd/internal/model"
)

type pgStateStore struct {
	db *gorm.DB
}

func NewPGStateStore(db *gorm.DB) StateStore {
	return &pgStateStore{db: db}
}

func (s *pgStateStore) Get(ctx context.Context, key string) (float64, bool, error) {
	var obs model.Observation
	err := s.db.WithContext(ctx).Where("source_key = ?", key).First(&obs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return obs.Value, true, nil
}

func (s *pgStateStore) Set(ctx context.Context, key string, value float64) error {
	obs := model.Observation{SourceKey: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&obs).
		Error
}

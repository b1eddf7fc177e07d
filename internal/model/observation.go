package model

import "time"

// Observation is the persisted form of one StateEntry: the last value accepted
// for a source key.
type Observation struct {
	SourceKey string    `gorm:"column:source_key;type:varchar(255);primaryKey" json:"source_key"`
	Value     float64   `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Observation) TableName() string { return "observations" }

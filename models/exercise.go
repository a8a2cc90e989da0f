package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryPush   = "push"
	CategoryPull   = "pull"
	CategoryCore   = "core"
	CategoryLegs   = "legs"
	CategoryCardio = "cardio"
)

// Exercise defines a bodyweight exercise players can battle on.
// IsStaticHold marks time-based exercises (plank, wall sit) where "reps" are seconds.
type Exercise struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string `gorm:"uniqueIndex;not null" json:"name"`
	Category     string `gorm:"index" json:"category"`
	Description  string `json:"description,omitempty"`
	IsStaticHold bool   `gorm:"default:false" json:"is_static_hold"`
}

func (e *Exercise) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

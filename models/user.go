package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the local player identity record. Authentication itself happens at the
// gateway; this service only resolves display data and progression fields.
type User struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	Username         string `gorm:"uniqueIndex;not null" json:"username"`
	Email            string `json:"email,omitempty"`
	Level            int    `gorm:"default:1" json:"level"`
	ExperiencePoints int64  `gorm:"default:0" json:"experience_points"`

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PlayerStats aggregates battle outcomes per user. WinRate is denormalized so the
// matchmaking join request can read it in one fetch.
type PlayerStats struct {
	ID      string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string  `gorm:"uniqueIndex;not null" json:"user_id"`
	Wins    int     `gorm:"default:0" json:"wins"`
	Losses  int     `gorm:"default:0" json:"losses"`
	WinRate float64 `gorm:"default:0" json:"win_rate"`

	Timestamps
}

func (p *PlayerStats) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

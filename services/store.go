package services

import (
	"errors"
	"fmt"

	"fitness-battle-system/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by store lookups for missing records, independent of
// the backing driver.
var ErrNotFound = errors.New("record not found")

// MatchStore is the persistence collaborator for the realtime core. The queue
// and game service only ever touch storage through this narrow surface, which
// keeps them testable against an in-memory fake.
type MatchStore interface {
	CreateMatch(playerAID, playerBID string, exerciseID *string) (string, error)
	GetMatch(matchID string) (*models.GameSession, error)
	SaveMatch(session *models.GameSession) error
	GetUser(userID string) (*models.User, error)
	GetExercise(exerciseID string) (*models.Exercise, error)
	ListExerciseNames() ([]string, error)
}

// GormStore implements MatchStore on Postgres.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) CreateMatch(playerAID, playerBID string, exerciseID *string) (string, error) {
	session := models.GameSession{
		PlayerAID:         playerAID,
		PlayerBID:         playerBID,
		Status:            models.GameStatusWaiting,
		CurrentExerciseID: exerciseID,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return "", fmt.Errorf("create game session: %w", err)
	}
	return session.ID, nil
}

func (s *GormStore) GetMatch(matchID string) (*models.GameSession, error) {
	var session models.GameSession
	if err := s.DB.First(&session, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) SaveMatch(session *models.GameSession) error {
	return s.DB.Save(session).Error
}

func (s *GormStore) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetExercise(exerciseID string) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := s.DB.First(&exercise, "id = ?", exerciseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

func (s *GormStore) ListExerciseNames() ([]string, error) {
	var names []string
	if err := s.DB.Model(&models.Exercise{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

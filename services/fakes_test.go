package services_test

import (
	"fmt"
	"sync"

	"fitness-battle-system/models"
	"fitness-battle-system/services"
)

// fakeConn records everything sent through it and can be flipped into a
// failing state to exercise best-effort delivery.
type fakeConn struct {
	mu       sync.Mutex
	messages []services.Envelope
	fail     bool
}

func (f *fakeConn) Send(message any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("connection broken")
	}
	env, ok := message.(services.Envelope)
	if !ok {
		env = services.Envelope{Type: "RAW", Payload: message}
	}
	f.messages = append(f.messages, env)
	return nil
}

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	for i, m := range f.messages {
		out[i] = m.Type
	}
	return out
}

func (f *fakeConn) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if m.Type == eventType {
			n++
		}
	}
	return n
}

func (f *fakeConn) find(eventType string) (services.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.Type == eventType {
			return m, true
		}
	}
	return services.Envelope{}, false
}

// fakeStore is an in-memory MatchStore. GetMatch hands out copies so state
// only changes through SaveMatch, same as a real database round-trip.
type fakeStore struct {
	mu         sync.Mutex
	matches    map[string]*models.GameSession
	users      map[string]*models.User
	exercises  map[string]*models.Exercise
	nextID     int
	failCreate bool
	created    []services.MatchResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches:   make(map[string]*models.GameSession),
		users:     make(map[string]*models.User),
		exercises: make(map[string]*models.Exercise),
	}
}

func (s *fakeStore) addUser(id, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &models.User{ID: id, Username: username, Level: 1}
}

func (s *fakeStore) addExercise(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises[id] = &models.Exercise{ID: id, Name: name}
}

func (s *fakeStore) putMatch(m *models.GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *m
	s.matches[m.ID] = &copied
}

func (s *fakeStore) CreateMatch(playerAID, playerBID string, exerciseID *string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return "", fmt.Errorf("storage unavailable")
	}
	s.nextID++
	id := fmt.Sprintf("game-%d", s.nextID)
	s.matches[id] = &models.GameSession{
		ID:                id,
		PlayerAID:         playerAID,
		PlayerBID:         playerBID,
		Status:            models.GameStatusWaiting,
		CurrentRound:      1,
		CurrentExerciseID: exerciseID,
	}
	s.created = append(s.created, services.MatchResult{GameID: id, PlayerAID: playerAID, PlayerBID: playerBID})
	return id, nil
}

func (s *fakeStore) GetMatch(matchID string) (*models.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (s *fakeStore) SaveMatch(session *models.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.matches[session.ID] = &copied
	return nil
}

func (s *fakeStore) GetUser(userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) GetExercise(exerciseID string) (*models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exercises[exerciseID]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *fakeStore) ListExerciseNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.exercises))
	for _, e := range s.exercises {
		names = append(names, e.Name)
	}
	return names, nil
}

func (s *fakeStore) match(id string) *models.GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *s.matches[id]
	return &copied
}

func (s *fakeStore) createdMatches() []services.MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]services.MatchResult, len(s.created))
	copy(out, s.created)
	return out
}

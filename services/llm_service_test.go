package services_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitness-battle-system/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer stands in for the OpenRouter chat-completions endpoint and
// answers every request with the given message content.
func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["model"])

		w.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
		} else {
			fmt.Fprint(w, `{"error":"overloaded"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func llmClient(srv *httptest.Server) *services.LLMService {
	return &services.LLMService{
		BaseURL: srv.URL,
		Model:   "test-model",
		APIKey:  "test-key",
		Client:  &http.Client{Timeout: 5 * time.Second},
		Enabled: true,
	}
}

func TestGenerateFormRules_Fallbacks(t *testing.T) {
	svc := &services.LLMService{}

	tests := []struct {
		exercise string
		wantRule string
	}{
		{"push-ups", "elbow_angle"},
		{"diamond pushups", "elbow_angle"},
		{"plank hold", "back_straight"},
		{"air squats", "knee_angle"},
		{"burpees", "elbow_angle"}, // unrecognized exercises get the generic rule
	}
	for _, tt := range tests {
		rules := svc.GenerateFormRules(tt.exercise)
		assert.Contains(t, rules, tt.wantRule, tt.exercise)
	}

	plank := svc.GenerateFormRules("plank")
	assert.Equal(t, 0.95, plank["back_straight"]["threshold"])
	assert.Equal(t, 0.8, plank["stability"]["min"])
}

func TestGenerateFormRules_FromModel(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"hip_angle": {"min": 70, "max": 170}}`)
	svc := llmClient(srv)

	rules := svc.GenerateFormRules("lunges")
	require.Contains(t, rules, "hip_angle")
	assert.Equal(t, 70.0, rules["hip_angle"]["min"])
}

func TestGenerateFormRules_StripsMarkdownFences(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "```json\n{\"hip_angle\": {\"min\": 70}}\n```")
	svc := llmClient(srv)

	rules := svc.GenerateFormRules("lunges")
	assert.Contains(t, rules, "hip_angle")
}

func TestGenerateFormRules_ServerErrorFallsBack(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "")
	svc := llmClient(srv)

	rules := svc.GenerateFormRules("squats")
	assert.Contains(t, rules, "knee_angle")
}

func TestGenerateFormRules_GarbageReplyFallsBack(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "sure, here are some tips!")
	svc := llmClient(srv)

	rules := svc.GenerateFormRules("push-ups")
	assert.Contains(t, rules, "elbow_angle")
}

func TestRecommendStrategy_Fallback(t *testing.T) {
	svc := &services.LLMService{}

	strategy := svc.RecommendStrategy(10, 7, "", []string{"planks", "squats"})
	assert.Equal(t, "planks", strategy.ExerciseID)
	assert.NotEmpty(t, strategy.Rationale)

	strategy = svc.RecommendStrategy(10, 7, "", nil)
	assert.Equal(t, "push-ups", strategy.ExerciseID)
}

func TestRecommendStrategy_FromModel(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"exercise_id": "planks", "rationale": "static hold neutralizes the rep gap"}`)
	svc := llmClient(srv)

	strategy := svc.RecommendStrategy(20, 5, "endurance", []string{"push-ups", "planks"})
	assert.Equal(t, "planks", strategy.ExerciseID)
	assert.Equal(t, "static hold neutralizes the rep gap", strategy.Rationale)
}

func TestRecommendStrategy_EmptyExerciseFallsBack(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"exercise_id": "", "rationale": "hmm"}`)
	svc := llmClient(srv)

	strategy := svc.RecommendStrategy(10, 7, "", []string{"squats"})
	assert.Equal(t, "squats", strategy.ExerciseID)
}

func TestGenerateNarrative_Fallback(t *testing.T) {
	svc := &services.LLMService{}

	line := svc.GenerateNarrative(services.RoundResult{Winner: "alice", Loser: "bob", WinnerScore: 10, LoserScore: 7, Round: 1})
	assert.Contains(t, line, "alice")

	tie := svc.GenerateNarrative(services.RoundResult{Winner: "Tie", WinnerScore: 7, LoserScore: 7, Round: 2})
	assert.Contains(t, tie, "even")
}

func TestGenerateNarrative_FromModelTrimsQuotes(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `"Alice crushes round one with 10 blistering reps!"`)
	svc := llmClient(srv)

	line := svc.GenerateNarrative(services.RoundResult{Winner: "alice", WinnerScore: 10, LoserScore: 7, Round: 1})
	assert.Equal(t, "Alice crushes round one with 10 blistering reps!", line)
}

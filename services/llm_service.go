package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Advisor produces round narratives, next-round strategy picks, and exercise
// form-check thresholds. Implementations must be total: when the backing model
// is unreachable they return deterministic fallbacks, never an error, so a
// stalled upstream can never block game-state progression.
type Advisor interface {
	GenerateFormRules(exerciseName string) map[string]map[string]float64
	RecommendStrategy(playerAScore, playerBScore int, weakness string, availableExercises []string) Strategy
	GenerateNarrative(result RoundResult) string
}

// Strategy is a next-round exercise recommendation.
type Strategy struct {
	ExerciseID         string `json:"exercise_id"`
	Rationale          string `json:"rationale"`
	DifficultyModifier string `json:"difficulty_modifier,omitempty"`
}

// RoundResult is the input for narrative generation.
type RoundResult struct {
	Winner      string `json:"winner"`
	Loser       string `json:"loser"`
	WinnerScore int    `json:"winner_score"`
	LoserScore  int    `json:"loser_score"`
	Round       int    `json:"round"`
}

// LLMService talks to an OpenRouter-compatible chat-completions API. With no
// API key configured it runs fully on the fallback tables.
type LLMService struct {
	BaseURL string
	Model   string
	APIKey  string
	Client  *http.Client
	Enabled bool
}

func NewLLMService() *LLMService {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	model := os.Getenv("OPENROUTER_MODEL")
	if model == "" {
		model = "anthropic/claude-3-haiku"
	}
	baseURL := os.Getenv("OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	if apiKey == "" {
		log.Println("[LLM] OPENROUTER_API_KEY not configured, advisory features will use fallbacks")
	}

	return &LLMService{
		BaseURL: baseURL,
		Model:   model,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Enabled: apiKey != "",
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *LLMService) complete(system, user string, temperature float64, maxTokens int) (string, error) {
	if !s.Enabled {
		return "", fmt.Errorf("llm service not configured")
	}

	body, _ := json.Marshal(chatRequest{
		Model: s.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})

	req, err := http.NewRequest("POST", s.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm api returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm api returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateFormRules returns measurable pose-check thresholds for an exercise,
// e.g. {"elbow_angle": {"min": 90, "max": 180}}.
func (s *LLMService) GenerateFormRules(exerciseName string) map[string]map[string]float64 {
	if !s.Enabled {
		return defaultFormRules(exerciseName)
	}

	prompt := fmt.Sprintf(`For the exercise %q, provide exactly 3 essential form rules as a JSON object mapping rule name to numeric thresholds (min/max angles in degrees, or 0-1 alignment thresholds). Rules must be measurable via pose detection. Respond with JSON only.`, exerciseName)

	raw, err := s.complete("You are a fitness form expert. Always respond with valid JSON only.", prompt, 0.3, 300)
	if err != nil {
		log.Printf("[LLM] Form rules generation failed for %q: %v", exerciseName, err)
		return defaultFormRules(exerciseName)
	}

	var rules map[string]map[string]float64
	if err := json.Unmarshal(extractJSON(raw), &rules); err != nil || len(rules) == 0 {
		log.Printf("[LLM] Unparseable form rules for %q, using defaults", exerciseName)
		return defaultFormRules(exerciseName)
	}
	return rules
}

// RecommendStrategy picks the most strategic next exercise for the losing
// player.
func (s *LLMService) RecommendStrategy(playerAScore, playerBScore int, weakness string, availableExercises []string) Strategy {
	if !s.Enabled {
		return defaultStrategy(availableExercises)
	}

	weaknessContext := "No specific weakness identified"
	if weakness != "" {
		weaknessContext = "Opponent weakness: " + weakness
	}
	exercises := strings.Join(availableExercises, ", ")
	if exercises == "" {
		exercises = "push-ups, pull-ups, planks, squats"
	}

	prompt := fmt.Sprintf(`Scores this round: winner %d reps vs loser %d reps. %s. Available bodyweight exercises: %s. Recommend the most strategic exercise for the losing player to pick next. Respond with a JSON object {"exercise_id": "...", "rationale": "..."} only.`,
		playerAScore, playerBScore, weaknessContext, exercises)

	raw, err := s.complete("You are a fitness battle strategist. Always respond with valid JSON only.", prompt, 0.7, 200)
	if err != nil {
		log.Printf("[LLM] Strategy recommendation failed: %v", err)
		return defaultStrategy(availableExercises)
	}

	var strategy Strategy
	if err := json.Unmarshal(extractJSON(raw), &strategy); err != nil {
		log.Printf("[LLM] Unparseable strategy, using default")
		return defaultStrategy(availableExercises)
	}
	if strategy.ExerciseID == "" {
		return defaultStrategy(availableExercises)
	}
	return strategy
}

// GenerateNarrative produces a short commentator line for a finished round.
func (s *LLMService) GenerateNarrative(result RoundResult) string {
	if !s.Enabled {
		return defaultNarrative(result)
	}

	prompt := fmt.Sprintf(`Round %d result: %s won with %d reps, %s lost with %d reps. Generate one short, exciting commentary sentence (max 100 characters) that hypes up the battle.`,
		result.Round, result.Winner, result.WinnerScore, result.Loser, result.LoserScore)

	raw, err := s.complete("You are an energetic fitness battle commentator. Keep responses short and exciting.", prompt, 0.9, 150)
	if err != nil {
		log.Printf("[LLM] Narrative generation failed: %v", err)
		return defaultNarrative(result)
	}

	narrative := strings.Trim(strings.TrimSpace(raw), `"'`)
	if len(narrative) > 200 {
		narrative = narrative[:200]
	}
	return narrative
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// extractJSON strips markdown fences and surrounding prose from a model reply.
func extractJSON(response string) []byte {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		lines := strings.Split(response, "\n")
		if len(lines) > 2 {
			response = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	if match := jsonObjectPattern.FindString(response); match != "" {
		return []byte(match)
	}
	return []byte(response)
}

func defaultFormRules(exerciseName string) map[string]map[string]float64 {
	defaults := map[string]map[string]map[string]float64{
		"push-up": {"elbow_angle": {"min": 90, "max": 180}},
		"pushup":  {"elbow_angle": {"min": 90, "max": 180}},
		"plank":   {"back_straight": {"threshold": 0.95}, "stability": {"min": 0.8}},
		"squat":   {"knee_angle": {"min": 90, "max": 180}},
	}

	lower := strings.ToLower(exerciseName)
	for key, rules := range defaults {
		if strings.Contains(lower, key) {
			return rules
		}
	}
	return map[string]map[string]float64{"elbow_angle": {"min": 90, "max": 180}}
}

func defaultStrategy(availableExercises []string) Strategy {
	exercise := "push-ups"
	if len(availableExercises) > 0 {
		exercise = availableExercises[0]
	}
	return Strategy{
		ExerciseID: exercise,
		Rationale:  "Default exercise selection",
	}
}

func defaultNarrative(result RoundResult) string {
	winner := result.Winner
	if winner == "" || winner == "Tie" {
		return "Dead even! Both contenders refuse to back down!"
	}
	return fmt.Sprintf("%s dominates this round! The battle continues!", winner)
}

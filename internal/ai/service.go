package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/VictorPerezCardoso/cotes/internal/llm"
	"github.com/VictorPerezCardoso/cotes/internal/model"
)

// QuizQuestionCount is the fixed number of questions per quiz.
const QuizQuestionCount = 10

// QuizOptionCount is the number of options per question.
const QuizOptionCount = 4

// Config tunes the gateway's LLM requests.
type Config struct {
	SuggestMaxTokens int
	QuizMaxTokens    int
	Temperature      float64
}

// DefaultConfig returns the standard gateway configuration.
func DefaultConfig() Config {
	return Config{
		SuggestMaxTokens: 1024,
		QuizMaxTokens:    4096,
		Temperature:      0.4,
	}
}

// Service implements Gateway on top of an llm.Provider.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// New creates a gateway service.
func New(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

var _ Gateway = (*Service)(nil)

// descriptionsPayload is the JSON object the suggestion prompt demands.
type descriptionsPayload struct {
	Descriptions []string `json:"descriptions"`
}

// SuggestResources runs a search-grounded request for the topic and
// pairs each search hit positionally with a generated description. The
// result length is min(hits, descriptions).
func (s *Service) SuggestResources(ctx context.Context, topic string) ([]model.Resource, error) {
	if !llm.ProviderSupportsSearch(s.provider) {
		return nil, &ResourceLookupError{
			Message: "the configured AI provider cannot search the web for resources",
		}
	}

	ctx = llm.WithPurpose(ctx, "suggest-resources")

	req := llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildSuggestPrompt(topic),
		}},
		GroundWithSearch: true,
		MaxTokens:        s.cfg.SuggestMaxTokens,
		Temperature:      s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, &ResourceLookupError{Message: "resource lookup failed", Err: err}
	}

	if len(resp.Sources) == 0 {
		return nil, &ResourceLookupError{
			Message: fmt.Sprintf("web search returned no results for %q", topic),
		}
	}

	payload, err := extractJSONObject(string(resp.Content))
	if err != nil {
		return nil, &ResourceLookupError{Message: "the AI response did not contain a valid descriptions object", Err: err}
	}

	var parsed descriptionsPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, &ResourceLookupError{Message: "the AI returned malformed description JSON", Err: err}
	}
	if parsed.Descriptions == nil {
		return nil, &ResourceLookupError{
			Message: `the AI response is missing the "descriptions" string array`,
		}
	}

	// Pair hits with descriptions by position; the shorter side wins.
	count := min(len(resp.Sources), len(parsed.Descriptions))
	resources := make([]model.Resource, 0, count)
	for i := 0; i < count; i++ {
		resources = append(resources, model.Resource{
			Title:       resp.Sources[i].Title,
			URI:         resp.Sources[i].URI,
			Description: parsed.Descriptions[i],
		})
	}

	if len(resources) == 0 {
		return nil, &ResourceLookupError{
			Message: "could not pair search results with generated descriptions",
		}
	}

	return resources, nil
}

// GenerateQuiz requests a multiple-choice quiz grounded in the saved
// resources when present, and a generic topic quiz otherwise.
func (s *Service) GenerateQuiz(ctx context.Context, topic string, resources []model.Resource, difficulty model.Difficulty) ([]model.QuizQuestion, error) {
	ctx = llm.WithPurpose(ctx, "quiz-gen")

	req := llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildQuizPrompt(topic, resources, difficulty),
		}},
		Schema:      QuizSchema,
		MaxTokens:   s.cfg.QuizMaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, &QuizGenerationError{Message: "quiz generation failed", Err: err}
	}

	var questions []model.QuizQuestion
	if err := json.Unmarshal(resp.Content, &questions); err != nil {
		return nil, &QuizGenerationError{Message: "the AI returned malformed quiz JSON", Err: err}
	}

	if err := validateQuestions(questions); err != nil {
		return nil, &QuizGenerationError{Message: "the AI returned an unusable quiz", Err: err}
	}

	return questions, nil
}

func validateQuestions(questions []model.QuizQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("no questions returned")
	}
	for i, q := range questions {
		if q.Question == "" {
			return fmt.Errorf("question %d has empty text", i)
		}
		if len(q.Options) != QuizOptionCount {
			return fmt.Errorf("question %d has %d options, want %d", i, len(q.Options), QuizOptionCount)
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("question %d: correct answer is not one of the options", i)
		}
	}
	return nil
}

func buildSuggestPrompt(topic string) string {
	return fmt.Sprintf(
		`Based on the search results for the topic %q, write a short, informative description for each of the top %d results found. Each description must be at most 2 sentences. Format your answer EXCLUSIVELY as a JSON object with a single key "descriptions" holding an array of strings, one description per result, in the same order as the results. Do NOT include any text or markdown formatting before or after the JSON object. Example output: {"descriptions": ["Description of the first link.", "Description of the second link."]}`,
		topic, 5)
}

func buildQuizPrompt(topic string, resources []model.Resource, difficulty model.Difficulty) string {
	var instruction string
	if difficulty == model.DifficultyHard {
		instruction = "The questions must be hard, testing advanced concepts, edge cases and practical application of the material. Avoid trivial questions."
	} else {
		instruction = "The questions must test fundamental concepts."
	}

	if len(resources) == 0 {
		return fmt.Sprintf(
			"Generate a multiple-choice quiz with %d questions about %q. Each question must have %d options. %s",
			QuizQuestionCount, topic, QuizOptionCount, instruction)
	}

	var ctx strings.Builder
	for _, r := range resources {
		fmt.Fprintf(&ctx, "Title: %s, Description: %s\n", r.Title, r.Description)
	}

	return fmt.Sprintf(
		"Generate a multiple-choice quiz with %d questions about the topic %q. The questions must be strictly based on the following resources the user saved for study:\n\n%s\nEach question must have %d options and one correct answer. %s",
		QuizQuestionCount, topic, ctx.String(), QuizOptionCount, instruction)
}

// extractJSONObject finds the outermost JSON object in raw model text,
// tolerating prose or markdown fences around it.
func extractJSONObject(raw string) (json.RawMessage, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	return json.RawMessage(raw[start : end+1]), nil
}

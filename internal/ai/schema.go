package ai

import "github.com/VictorPerezCardoso/cotes/internal/llm"

// QuizSchema defines the JSON schema for quiz generation responses: an
// array of question objects, each with four options and a correct
// answer matching one of them.
var QuizSchema = &llm.Schema{
	Name:        "study-quiz",
	Description: "A multiple-choice quiz about a study topic",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The question prompt shown to the learner",
				},
				"options": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Exactly 4 answer options",
				},
				"correctAnswer": map[string]any{
					"type":        "string",
					"description": "The text of the correct option, byte-identical to one entry of options",
				},
			},
			"required":             []any{"question", "options", "correctAnswer"},
			"additionalProperties": false,
		},
	},
}

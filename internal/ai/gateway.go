// Package ai implements the gateway the study tracker uses for its two
// model-backed operations: suggesting reading resources for a topic and
// generating a quiz from a finished session. Both failure modes are
// non-fatal by contract: the session state machine always has a fallback
// transition.
package ai

import (
	"context"
	"fmt"

	"github.com/VictorPerezCardoso/cotes/internal/model"
)

// Gateway is the AI contract the session controller and quiz manager
// depend on.
type Gateway interface {
	// SuggestResources returns reading suggestions for a topic, one per
	// underlying search hit, each paired with a generated description.
	SuggestResources(ctx context.Context, topic string) ([]model.Resource, error)

	// GenerateQuiz produces a fixed-size multiple-choice quiz about the
	// topic, based on the saved resources when there are any.
	GenerateQuiz(ctx context.Context, topic string, resources []model.Resource, difficulty model.Difficulty) ([]model.QuizQuestion, error)
}

// ResourceLookupError reports a failed resource suggestion: no search
// grounding, a malformed description payload, or a transport error. The
// message is shown to the user as-is.
type ResourceLookupError struct {
	Message string
	Err     error
}

func (e *ResourceLookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ResourceLookupError) Unwrap() error { return e.Err }

// QuizGenerationError reports a failed quiz generation. The pending
// session degrades to a score-zero archive entry.
type QuizGenerationError struct {
	Message string
	Err     error
}

func (e *QuizGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *QuizGenerationError) Unwrap() error { return e.Err }

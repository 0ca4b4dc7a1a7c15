package ai

import (
	"context"
	"fmt"
	"strings"
)

// MockDrafter is the deterministic fallback used when no AI provider is
// configured. It echoes the request into a usable outline so the create-task
// flow works end to end without external calls.
type MockDrafter struct{}

// NewMockDrafter constructs the fallback drafter.
func NewMockDrafter() *MockDrafter {
	return &MockDrafter{}
}

// Draft builds a canned outline from the prompt.
func (m *MockDrafter) Draft(_ context.Context, input DraftInput) (DraftResult, error) {
	topic := strings.TrimSpace(input.Prompt)
	if topic == "" {
		return DraftResult{}, fmt.Errorf("draft prompt must not be empty")
	}

	// Truncate on runes so multi-byte characters survive intact.
	title := topic
	if runes := []rune(title); len(runes) > 60 {
		title = string(runes[:60])
	}

	instructions := fmt.Sprintf("Work through the activity below: %s", topic)
	if input.TargetSkill != "" {
		instructions = fmt.Sprintf("%s Focus on %s.", instructions, input.TargetSkill)
	}

	return DraftResult{
		Title:        title,
		Instructions: instructions,
		Steps: []string{
			"Read the instructions carefully",
			"Complete the main activity",
			"Check your work against the success criteria",
		},
		Easier:   fmt.Sprintf("A guided version of: %s", topic),
		Standard: topic,
		Stretch:  fmt.Sprintf("An extended challenge based on: %s", topic),
		SuccessCriteria: []string{
			"All steps completed",
			"Work checked before submitting",
		},
		Provider: "mock",
	}, nil
}

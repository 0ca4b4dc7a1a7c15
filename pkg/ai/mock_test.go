package ai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDrafterRequiresPrompt(t *testing.T) {
	drafter := NewMockDrafter()

	_, err := drafter.Draft(context.Background(), DraftInput{Prompt: "   "})
	assert.Error(t, err)
}

func TestMockDrafterBuildsOutline(t *testing.T) {
	drafter := NewMockDrafter()

	result, err := drafter.Draft(context.Background(), DraftInput{
		Prompt:      "Comprehension task about rivers",
		TargetSkill: "inference",
	})
	require.NoError(t, err)

	assert.Equal(t, "Comprehension task about rivers", result.Title)
	assert.Contains(t, result.Instructions, "inference")
	assert.NotEmpty(t, result.Steps)
	assert.Equal(t, "mock", result.Provider)
}

func TestMockDrafterTruncatesTitleOnRunes(t *testing.T) {
	drafter := NewMockDrafter()

	prompt := strings.Repeat("数学の宿題を解く", 20)
	result, err := drafter.Draft(context.Background(), DraftInput{Prompt: prompt})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(result.Title))
	assert.Equal(t, 60, utf8.RuneCountInString(result.Title))
	assert.True(t, strings.HasPrefix(prompt, result.Title))
}

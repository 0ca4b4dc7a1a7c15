package ai

import "context"

// DraftInput carries a teacher's free-text request for a task outline.
type DraftInput struct {
	Prompt      string
	TargetSkill string
	TargetLevel string
}

// DraftResult is the structured task outline produced by a drafting
// provider. Nothing in it is persisted; it seeds the create-task form.
type DraftResult struct {
	Title           string   `json:"title"`
	Instructions    string   `json:"instructions"`
	Steps           []string `json:"steps"`
	Easier          string   `json:"easier"`
	Standard        string   `json:"standard"`
	Stretch         string   `json:"stretch"`
	SuccessCriteria []string `json:"success_criteria"`
	Provider        string   `json:"provider"`
}

// Drafter describes a text-generation capability able to outline a task.
type Drafter interface {
	Draft(ctx context.Context, input DraftInput) (DraftResult, error)
}

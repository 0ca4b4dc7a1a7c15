package dto

// TaskDraftRequest asks the drafting assistant for a task outline.
type TaskDraftRequest struct {
	Prompt      string `json:"prompt" validate:"required,min=10"`
	TargetSkill string `json:"target_skill" validate:"omitempty,max=128"`
	TargetLevel string `json:"target_level" validate:"omitempty,max=64"`
}

// TaskDraftResponse is the structured draft returned to the teacher. It is
// a suggestion only; nothing is persisted until the teacher creates a task.
type TaskDraftResponse struct {
	Title           string                 `json:"title"`
	Instructions    string                 `json:"instructions"`
	Steps           []string               `json:"steps"`
	Differentiation DifferentiationPayload `json:"differentiation"`
	SuccessCriteria []string               `json:"success_criteria"`
	Provider        string                 `json:"provider"`
}

package service

import "errors"

// Sentinel errors shared across the task workflow services. Handlers map
// these onto HTTP statuses; nothing below this layer retries.
var (
	// ErrForbidden indicates the actor lacks the role or ownership the
	// operation requires.
	ErrForbidden = errors.New("operation not permitted")

	// ErrClassNotFound indicates the referenced class does not exist.
	ErrClassNotFound = errors.New("class not found")

	// ErrTaskNotFound indicates the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAssignmentNotFound indicates no assignment exists for the given
	// identifier or (task, student) pair.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrEmptyStudentSelection indicates a targeted fan-out carried no
	// student ids.
	ErrEmptyStudentSelection = errors.New("student selection must not be empty")

	// ErrEmptyContent indicates submission content was empty once
	// sanitised.
	ErrEmptyContent = errors.New("submission content must not be empty")

	// ErrNotSubmitted indicates a review was attempted before the student
	// submitted any work.
	ErrNotSubmitted = errors.New("assignment has not been submitted")

	// ErrAlreadyReviewed indicates a resubmission was attempted after the
	// teacher reviewed the assignment.
	ErrAlreadyReviewed = errors.New("assignment already reviewed")

	// ErrAlreadySubmitted indicates a start was attempted after submission.
	ErrAlreadySubmitted = errors.New("assignment already submitted")

	// ErrInvalidRange indicates an unknown report range keyword.
	ErrInvalidRange = errors.New("invalid report range")
)

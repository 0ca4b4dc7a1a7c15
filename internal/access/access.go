package access

import "strings"

// Roles known to the workflow. External identities carry RoleExternal and
// hold no capabilities here.
const (
	RoleTeacher  = "teacher"
	RoleAdmin    = "admin"
	RoleStudent  = "student"
	RoleExternal = "external"
)

// Actor identifies the caller of an operation. Every service call takes an
// explicit Actor instead of reading ambient session state.
type Actor struct {
	ID   uint
	Role string
}

// NormalizeRole lowercases and trims a role string, mapping unknown values
// to RoleExternal.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleTeacher:
		return RoleTeacher
	case RoleAdmin:
		return RoleAdmin
	case RoleStudent:
		return RoleStudent
	default:
		return RoleExternal
	}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanCreateTask reports whether the actor may create tasks for the class
// owned by ownerID.
func CanCreateTask(actor Actor, ownerID uint) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == RoleTeacher && actor.ID == ownerID
}

// CanReview reports whether the actor may review assignments of a task
// created by teacherID.
func CanReview(actor Actor, teacherID uint) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == RoleTeacher && actor.ID == teacherID
}

// CanSubmit reports whether the actor may submit work for an assignment
// belonging to studentID.
func CanSubmit(actor Actor, studentID uint) bool {
	return actor.Role == RoleStudent && actor.ID == studentID
}

// CanViewAssignment reports whether the actor may read an assignment: the
// assigned student, the owning teacher, or an admin.
func CanViewAssignment(actor Actor, studentID, teacherID uint) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.Role == RoleStudent {
		return actor.ID == studentID
	}
	return actor.Role == RoleTeacher && actor.ID == teacherID
}

// CanViewClassReport reports whether the actor may read aggregate reports
// for a class owned by ownerID.
func CanViewClassReport(actor Actor, ownerID uint) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == RoleTeacher && actor.ID == ownerID
}

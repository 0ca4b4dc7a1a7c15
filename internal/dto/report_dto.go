package dto

import "time"

// Report ranges accepted by the class report endpoint.
const (
	RangeAll    = "all"
	RangeLast30 = "last30"
	RangeLast90 = "last90"
)

// ValidRange reports whether the supplied range keyword is known.
func ValidRange(value string) bool {
	switch value {
	case RangeAll, RangeLast30, RangeLast90:
		return true
	default:
		return false
	}
}

// StatusBreakdown is the histogram of assignment states used for charting.
// Submitted counts only assignments awaiting review, not reviewed ones.
type StatusBreakdown struct {
	Assigned  int `json:"assigned"`
	Submitted int `json:"submitted"`
	Reviewed  int `json:"reviewed"`
}

// StudentReportRow aggregates one class member's assignments in the window.
// Members without assignments still appear with zero counts.
type StudentReportRow struct {
	StudentID        uint `json:"student_id"`
	TotalAssignments int  `json:"total_assignments"`
	SubmittedCount   int  `json:"submitted_count"`
	ReviewedCount    int  `json:"reviewed_count"`
	TotalRewardScore int  `json:"total_reward_score"`
}

// WeeklyRewardPoint is one bucket of the sparse reward-score series. Date is
// the ISO date of the UTC Sunday that starts the week.
type WeeklyRewardPoint struct {
	WeekLabel      string `json:"week_label"`
	Date           string `json:"date"`
	RewardScoreSum int    `json:"reward_score_sum"`
}

// ClassReportResponse is the on-demand aggregate for one class and window.
type ClassReportResponse struct {
	ClassID          uint                `json:"class_id"`
	ClassName        string              `json:"class_name"`
	Range            string              `json:"range"`
	TotalTasks       int                 `json:"total_tasks"`
	TotalAssignments int                 `json:"total_assignments"`
	SubmittedCount   int                 `json:"submitted_count"`
	ReviewedCount    int                 `json:"reviewed_count"`
	TotalRewardScore int                 `json:"total_reward_score"`
	Students         []StudentReportRow  `json:"students"`
	WeeklySeries     []WeeklyRewardPoint `json:"weekly_series"`
	StatusBreakdown  StatusBreakdown     `json:"status_breakdown"`
	GeneratedAt      time.Time           `json:"generated_at"`
	CacheHit         bool                `json:"cache_hit"`
}

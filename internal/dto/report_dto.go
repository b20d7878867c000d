package dto

// StudentCreditReport aggregates a student's activity outcomes.
type StudentCreditReport struct {
	StudentID           uint    `json:"student_id"`
	Pending             int64   `json:"pending"`
	UnderReview         int64   `json:"under_review"`
	Approved            int64   `json:"approved"`
	Rejected            int64   `json:"rejected"`
	TotalCreditsAwarded float64 `json:"total_credits_awarded"`
}

// OverviewReport aggregates portal-wide workflow state for admins.
type OverviewReport struct {
	ActivitiesByStatus  map[string]int64 `json:"activities_by_status"`
	UsersByStatus       map[string]int64 `json:"users_by_status"`
	TotalCreditsAwarded float64          `json:"total_credits_awarded"`
}

package models

type TerminationType string

const (
	TerminationTypeTermination TerminationType = "Termination"
	TerminationTypeResignation TerminationType = "Resignation"
)

type ProbationStatus string

const (
	ProbationStatusOnProbation ProbationStatus = "On Probation"
	ProbationStatusCompleted   ProbationStatus = "Completed"
	ProbationStatusFailed      ProbationStatus = "Failed"
)

type PerformanceRating string

const (
	PerformanceRatingBelow  PerformanceRating = "Below Expectations"
	PerformanceRatingMeets  PerformanceRating = "Meets Expectations"
	PerformanceRatingExceed PerformanceRating = "Exceed Expectations"
)

// ContractType is the HR system's marital-contract category. Values other
// than the two below exist in legacy imports and are counted in neither
// bucket.
type ContractType string

const (
	ContractTypeMarried ContractType = "Married"
	ContractTypeSingle  ContractType = "Single"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "A"
	UserRoleOwner UserRole = "O"
)

// DisplayName is the role label the API returns and embeds in tokens.
func (r UserRole) DisplayName() string {
	if r == UserRoleAdmin {
		return "Admin"
	}
	return "Owner"
}

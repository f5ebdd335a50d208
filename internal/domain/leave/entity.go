package leave

import (
	"time"
)

// Type is the leave category a request is booked against
type Type string

const (
	TypeAnnual    Type = "ANNUAL"
	TypeCasual    Type = "CASUAL"
	TypeSick      Type = "SICK"
	TypeMaternity Type = "MATERNITY"
	TypePaternity Type = "PATERNITY"
	TypeStudy     Type = "STUDY"
	TypeUnpaid    Type = "UNPAID"
)

// AllTypes returns every leave category
func AllTypes() []Type {
	return []Type{TypeAnnual, TypeCasual, TypeSick, TypeMaternity, TypePaternity, TypeStudy, TypeUnpaid}
}

// IsValid reports whether t is a known category
func (t Type) IsValid() bool {
	for _, known := range AllTypes() {
		if t == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Leave entity. At most one row exists per (UserEmail, StartDate, EndDate).
type Leave struct {
	ID            string
	UserEmail     string
	UserName      string
	Type          Type
	StartDate     time.Time
	EndDate       time.Time
	Days          int
	Year          string
	UserNote      string
	Status        Status
	ModeratorNote *string
	UpdatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CountDays returns the inclusive number of calendar days between start and
// end. Both are truncated to their calendar date first.
func CountDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s)/(24*time.Hour)) + 1
}

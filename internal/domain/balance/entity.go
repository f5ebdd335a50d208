package balance

import (
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
)

// Balances is a user's leave ledger for one year. Unpaid leave has no credit,
// only a used counter.
type Balances struct {
	ID        string
	UserEmail string
	Name      string
	Year      string

	AnnualCredit    int
	AnnualUsed      int
	AnnualAvailable int

	CasualCredit    int
	CasualUsed      int
	CasualAvailable int

	SickCredit    int
	SickUsed      int
	SickAvailable int

	MaternityCredit    int
	MaternityUsed      int
	MaternityAvailable int

	PaternityCredit    int
	PaternityUsed      int
	PaternityAvailable int

	StudyCredit    int
	StudyUsed      int
	StudyAvailable int

	UnpaidUsed int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// counters returns pointers to the used and available counters of a credited
// category. ok is false for unpaid leave and unknown types.
func (b *Balances) counters(t leave.Type) (used, available *int, ok bool) {
	switch t {
	case leave.TypeAnnual:
		return &b.AnnualUsed, &b.AnnualAvailable, true
	case leave.TypeCasual:
		return &b.CasualUsed, &b.CasualAvailable, true
	case leave.TypeSick:
		return &b.SickUsed, &b.SickAvailable, true
	case leave.TypeMaternity:
		return &b.MaternityUsed, &b.MaternityAvailable, true
	case leave.TypePaternity:
		return &b.PaternityUsed, &b.PaternityAvailable, true
	case leave.TypeStudy:
		return &b.StudyUsed, &b.StudyAvailable, true
	}
	return nil, nil, false
}

// Available returns the remaining days for t; unpaid leave is unbounded (-1).
func (b *Balances) Available(t leave.Type) int {
	if _, available, ok := b.counters(t); ok {
		return *available
	}
	return -1
}

// Consume books days of approved leave against the ledger.
func (b *Balances) Consume(t leave.Type, days int) error {
	if days <= 0 {
		return ErrInvalidDays
	}
	if t == leave.TypeUnpaid {
		b.UnpaidUsed += days
		return nil
	}

	used, available, ok := b.counters(t)
	if !ok {
		return ErrUnknownCategory
	}
	if *available < days {
		return ErrInsufficientBalance
	}
	*used += days
	*available -= days
	return nil
}

// NewLedger opens a ledger with every credit fully available.
func NewLedger(userEmail, name, year string, credits Credits) Balances {
	return Balances{
		UserEmail:          userEmail,
		Name:               name,
		Year:               year,
		AnnualCredit:       credits.Annual,
		AnnualAvailable:    credits.Annual,
		CasualCredit:       credits.Casual,
		CasualAvailable:    credits.Casual,
		SickCredit:         credits.Sick,
		SickAvailable:      credits.Sick,
		MaternityCredit:    credits.Maternity,
		MaternityAvailable: credits.Maternity,
		PaternityCredit:    credits.Paternity,
		PaternityAvailable: credits.Paternity,
		StudyCredit:        credits.Study,
		StudyAvailable:     credits.Study,
	}
}

// Credits are the days granted per category when a ledger is opened
type Credits struct {
	Annual    int
	Casual    int
	Sick      int
	Maternity int
	Paternity int
	Study     int
}

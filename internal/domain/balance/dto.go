package balance

import (
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

// EditBalancesRequest carries the full counter state of the edit form. Every
// counter is required so a missing field never zeroes a ledger silently.
type EditBalancesRequest struct {
	ID string `json:"id"`

	AnnualCredit    *int `json:"annualCredit"`
	AnnualUsed      *int `json:"annualUsed"`
	AnnualAvailable *int `json:"annualAvailable"`

	CasualCredit    *int `json:"casualCredit"`
	CasualUsed      *int `json:"casualUsed"`
	CasualAvailable *int `json:"casualAvailable"`

	SickCredit    *int `json:"sickCredit"`
	SickUsed      *int `json:"sickUsed"`
	SickAvailable *int `json:"sickAvailable"`

	MaternityCredit    *int `json:"maternityCredit"`
	MaternityUsed      *int `json:"maternityUsed"`
	MaternityAvailable *int `json:"maternityAvailable"`

	PaternityCredit    *int `json:"paternityCredit"`
	PaternityUsed      *int `json:"paternityUsed"`
	PaternityAvailable *int `json:"paternityAvailable"`

	StudyCredit    *int `json:"studyCredit"`
	StudyUsed      *int `json:"studyUsed"`
	StudyAvailable *int `json:"studyAvailable"`

	UnpaidUsed *int `json:"unpaidUsed"`
}

type counterField struct {
	name  string
	value *int
	dst   func(b *Balances) *int
}

func (r *EditBalancesRequest) fields() []counterField {
	return []counterField{
		{"annualCredit", r.AnnualCredit, func(b *Balances) *int { return &b.AnnualCredit }},
		{"annualUsed", r.AnnualUsed, func(b *Balances) *int { return &b.AnnualUsed }},
		{"annualAvailable", r.AnnualAvailable, func(b *Balances) *int { return &b.AnnualAvailable }},
		{"casualCredit", r.CasualCredit, func(b *Balances) *int { return &b.CasualCredit }},
		{"casualUsed", r.CasualUsed, func(b *Balances) *int { return &b.CasualUsed }},
		{"casualAvailable", r.CasualAvailable, func(b *Balances) *int { return &b.CasualAvailable }},
		{"sickCredit", r.SickCredit, func(b *Balances) *int { return &b.SickCredit }},
		{"sickUsed", r.SickUsed, func(b *Balances) *int { return &b.SickUsed }},
		{"sickAvailable", r.SickAvailable, func(b *Balances) *int { return &b.SickAvailable }},
		{"maternityCredit", r.MaternityCredit, func(b *Balances) *int { return &b.MaternityCredit }},
		{"maternityUsed", r.MaternityUsed, func(b *Balances) *int { return &b.MaternityUsed }},
		{"maternityAvailable", r.MaternityAvailable, func(b *Balances) *int { return &b.MaternityAvailable }},
		{"paternityCredit", r.PaternityCredit, func(b *Balances) *int { return &b.PaternityCredit }},
		{"paternityUsed", r.PaternityUsed, func(b *Balances) *int { return &b.PaternityUsed }},
		{"paternityAvailable", r.PaternityAvailable, func(b *Balances) *int { return &b.PaternityAvailable }},
		{"studyCredit", r.StudyCredit, func(b *Balances) *int { return &b.StudyCredit }},
		{"studyUsed", r.StudyUsed, func(b *Balances) *int { return &b.StudyUsed }},
		{"studyAvailable", r.StudyAvailable, func(b *Balances) *int { return &b.StudyAvailable }},
		{"unpaidUsed", r.UnpaidUsed, func(b *Balances) *int { return &b.UnpaidUsed }},
	}
}

func (r *EditBalancesRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	} else if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}

	for _, f := range r.fields() {
		switch {
		case f.value == nil:
			errs.Add(f.name, f.name+" is required")
		case *f.value < 0:
			errs.Add(f.name, f.name+" must not be negative")
		}
	}

	return errs.Err()
}

// ApplyTo copies the submitted counters onto b. Call after Validate.
func (r *EditBalancesRequest) ApplyTo(b *Balances) {
	for _, f := range r.fields() {
		if f.value != nil {
			*f.dst(b) = *f.value
		}
	}
}

// BalanceFilter narrows ledger listings
type BalanceFilter struct {
	Year      *string
	UserEmail *string
	Page      int
	Limit     int
}

func (f *BalanceFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (f *BalanceFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs.Add("year", "year must be four digits")
	}
	return errs.Err()
}

// BalanceResponse keeps the ledger field names the dashboard forms use
type BalanceResponse struct {
	ID        string `json:"id"`
	UserEmail string `json:"email"`
	Name      string `json:"name"`
	Year      string `json:"year"`

	AnnualCredit    int `json:"annualCredit"`
	AnnualUsed      int `json:"annualUsed"`
	AnnualAvailable int `json:"annualAvailable"`

	CasualCredit    int `json:"casualCredit"`
	CasualUsed      int `json:"casualUsed"`
	CasualAvailable int `json:"casualAvailable"`

	SickCredit    int `json:"sickCredit"`
	SickUsed      int `json:"sickUsed"`
	SickAvailable int `json:"sickAvailable"`

	MaternityCredit    int `json:"maternityCredit"`
	MaternityUsed      int `json:"maternityUsed"`
	MaternityAvailable int `json:"maternityAvailable"`

	PaternityCredit    int `json:"paternityCredit"`
	PaternityUsed      int `json:"paternityUsed"`
	PaternityAvailable int `json:"paternityAvailable"`

	StudyCredit    int `json:"studyCredit"`
	StudyUsed      int `json:"studyUsed"`
	StudyAvailable int `json:"studyAvailable"`

	UnpaidUsed int `json:"unpaidUsed"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (b Balances) ToResponse() BalanceResponse {
	return BalanceResponse{
		ID:                 b.ID,
		UserEmail:          b.UserEmail,
		Name:               b.Name,
		Year:               b.Year,
		AnnualCredit:       b.AnnualCredit,
		AnnualUsed:         b.AnnualUsed,
		AnnualAvailable:    b.AnnualAvailable,
		CasualCredit:       b.CasualCredit,
		CasualUsed:         b.CasualUsed,
		CasualAvailable:    b.CasualAvailable,
		SickCredit:         b.SickCredit,
		SickUsed:           b.SickUsed,
		SickAvailable:      b.SickAvailable,
		MaternityCredit:    b.MaternityCredit,
		MaternityUsed:      b.MaternityUsed,
		MaternityAvailable: b.MaternityAvailable,
		PaternityCredit:    b.PaternityCredit,
		PaternityUsed:      b.PaternityUsed,
		PaternityAvailable: b.PaternityAvailable,
		StudyCredit:        b.StudyCredit,
		StudyUsed:          b.StudyUsed,
		StudyAvailable:     b.StudyAvailable,
		UnpaidUsed:         b.UnpaidUsed,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.Format(time.RFC3339),
	}
}

type ListBalanceResponse struct {
	Balances   []BalanceResponse `json:"balances"`
	TotalItems int64             `json:"totalItems"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

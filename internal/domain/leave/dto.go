package leave

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

const dateLayout = "2006-01-02"

// SubmittedBy is the user block the leave form posts along with the request
type SubmittedBy struct {
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

// SubmitLeaveRequest is the leave form payload
type SubmitLeaveRequest struct {
	Leave     string      `json:"leave"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Notes     string      `json:"notes"`
	User      SubmittedBy `json:"user"`
}

// Range parses both dates and checks their order
func (r *SubmitLeaveRequest) Range() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	start, ok := validator.ParseCalendarDate(r.StartDate)
	if !ok {
		errs.Add("startDate", "startDate must be a date (YYYY-MM-DD or ISO 8601)")
	}
	end, ok := validator.ParseCalendarDate(r.EndDate)
	if !ok {
		errs.Add("endDate", "endDate must be a date (YYYY-MM-DD or ISO 8601)")
	}
	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

func (r *SubmitLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Leave) {
		errs.Add("leave", "leave is required")
	} else if !Type(r.Leave).IsValid() {
		errs.Add("leave", "invalid leave type")
	}

	if _, _, err := r.Range(); err != nil {
		var rangeErrs validator.ValidationErrors
		if errors.As(err, &rangeErrs) {
			errs = append(errs, rangeErrs...)
		} else {
			errs.Add("endDate", "endDate must not be before startDate")
		}
	}

	if !validator.MaxLen(r.Notes, 1000) {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}

	if r.User.Email != "" && !validator.IsValidEmail(r.User.Email) {
		errs.Add("user.email", "invalid email format")
	}

	return errs.Err()
}

// DecideLeaveRequest approves or rejects a pending leave
type DecideLeaveRequest struct {
	ID   string `json:"-"`
	Note string `json:"note"`
}

func (r *DecideLeaveRequest) validate(noteRequired bool) error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}
	if noteRequired && validator.IsEmpty(r.Note) {
		errs.Add("note", "note is required when rejecting a leave")
	}
	if !validator.MaxLen(r.Note, 1000) {
		errs.Add("note", "note must not exceed 1000 characters")
	}

	return errs.Err()
}

func (r *DecideLeaveRequest) ValidateApprove() error { return r.validate(false) }

func (r *DecideLeaveRequest) ValidateReject() error { return r.validate(true) }

// LeaveFilter narrows leave listings. Nil fields are not filtered.
type LeaveFilter struct {
	Status    *Status
	Type      *Type
	Year      *string
	UserEmail *string
	Page      int
	Limit     int
}

func (f *LeaveFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (f *LeaveFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !f.Status.IsValid() {
		errs.Add("status", "invalid status")
	}
	if f.Type != nil && !f.Type.IsValid() {
		errs.Add("type", "invalid leave type")
	}
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs.Add("year", "year must be four digits")
	}

	return errs.Err()
}

// LeaveResponse represents a leave in API responses
type LeaveResponse struct {
	ID            string  `json:"id"`
	UserEmail     string  `json:"userEmail"`
	UserName      string  `json:"userName"`
	Type          Type    `json:"type"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	Days          int     `json:"days"`
	Year          string  `json:"year"`
	UserNote      string  `json:"userNote"`
	Status        Status  `json:"status"`
	ModeratorNote *string `json:"moderatorNote,omitempty"`
	UpdatedBy     *string `json:"updatedBy,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func (l Leave) ToResponse() LeaveResponse {
	return LeaveResponse{
		ID:            l.ID,
		UserEmail:     l.UserEmail,
		UserName:      l.UserName,
		Type:          l.Type,
		StartDate:     l.StartDate.Format(dateLayout),
		EndDate:       l.EndDate.Format(dateLayout),
		Days:          l.Days,
		Year:          l.Year,
		UserNote:      l.UserNote,
		Status:        l.Status,
		ModeratorNote: l.ModeratorNote,
		UpdatedBy:     l.UpdatedBy,
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     l.UpdatedAt.Format(time.RFC3339),
	}
}

type ListLeaveResponse struct {
	Leaves     []LeaveResponse `json:"leaves"`
	TotalItems int64           `json:"totalItems"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

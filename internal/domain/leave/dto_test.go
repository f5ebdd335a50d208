package leave

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitLeaveRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       SubmitLeaveRequest
		wantField string
	}{
		{
			name: "valid date only",
			req:  SubmitLeaveRequest{Leave: "ANNUAL", StartDate: "2026-03-02", EndDate: "2026-03-04"},
		},
		{
			name: "valid ISO timestamps",
			req:  SubmitLeaveRequest{Leave: "SICK", StartDate: "2026-03-02T00:00:00.000Z", EndDate: "2026-03-02T00:00:00Z"},
		},
		{
			name:      "unknown type",
			req:       SubmitLeaveRequest{Leave: "HOLIDAY", StartDate: "2026-03-02", EndDate: "2026-03-04"},
			wantField: "leave",
		},
		{
			name:      "missing type",
			req:       SubmitLeaveRequest{StartDate: "2026-03-02", EndDate: "2026-03-04"},
			wantField: "leave",
		},
		{
			name:      "bad start date",
			req:       SubmitLeaveRequest{Leave: "ANNUAL", StartDate: "02/03/2026", EndDate: "2026-03-04"},
			wantField: "startDate",
		},
		{
			name:      "end before start",
			req:       SubmitLeaveRequest{Leave: "ANNUAL", StartDate: "2026-03-04", EndDate: "2026-03-02"},
			wantField: "endDate",
		},
		{
			name:      "bad user email",
			req:       SubmitLeaveRequest{Leave: "ANNUAL", StartDate: "2026-03-02", EndDate: "2026-03-02", User: SubmittedBy{Email: "nope"}},
			wantField: "user.email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.wantField)
		})
	}
}

func TestSubmitLeaveRequest_Range(t *testing.T) {
	req := SubmitLeaveRequest{StartDate: "2026-03-02T15:30:00+07:00", EndDate: "2026-03-05"}

	start, end, err := req.Range()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 4, CountDays(start, end))

	req.EndDate = "2026-03-01"
	_, _, err = req.Range()
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestDecideLeaveRequest(t *testing.T) {
	id := uuid.Must(uuid.NewV7()).String()

	approve := DecideLeaveRequest{ID: id}
	assert.NoError(t, approve.ValidateApprove())

	reject := DecideLeaveRequest{ID: id}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, reject.ValidateReject(), &verrs)
	assert.Contains(t, verrs.ToMap(), "note")

	reject.Note = "Overlaps with release week"
	assert.NoError(t, reject.ValidateReject())

	bad := DecideLeaveRequest{ID: "123"}
	assert.Error(t, bad.ValidateApprove())
}

func TestLeaveFilter(t *testing.T) {
	f := LeaveFilter{Page: 0, Limit: 500}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)

	status := Status("DONE")
	year := "26"
	f.Status = &status
	f.Year = &year
	var verrs validator.ValidationErrors
	require.ErrorAs(t, f.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "status")
	assert.Contains(t, verrs.ToMap(), "year")
}

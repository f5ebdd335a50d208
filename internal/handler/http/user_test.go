package http

import (
	"net/http"
	"testing"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMe_UsesTokenUser(t *testing.T) {
	ts := newTestServer(t)
	ts.users.On("GetUser", mock.Anything, regularUser.ID).
		Return(user.UserResponse{ID: regularUser.ID, Email: regularUser.Email, Role: user.RoleUser}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/users/me", "", &regularUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	ts.users.AssertExpectations(t)
}

func TestEditUser(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		callsSvc   bool
		wantStatus int
	}{
		{
			name:       "success",
			body:       `{"phone":"+62 812","department":"Engineering","title":"Lead","role":"MODERATOR"}`,
			callsSvc:   true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "body id must match path",
			body:       `{"id":"01960000-0000-7000-8000-0000000000ff","role":"USER"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user",
			body:       `{"role":"USER"}`,
			serviceErr: user.ErrUserNotFound,
			callsSvc:   true,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.users.On("EditUser", mock.Anything, mock.MatchedBy(func(req user.EditUserRequest) bool {
				return req.ID == regularUser.ID
			})).Return(user.UserResponse{ID: regularUser.ID}, tt.serviceErr)

			rec := ts.do(t, http.MethodPatch, "/api/v1/users/"+regularUser.ID, tt.body, &adminUser)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.callsSvc {
				ts.users.AssertExpectations(t)
			} else {
				ts.users.AssertNotCalled(t, "EditUser", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestListUsers_Search(t *testing.T) {
	ts := newTestServer(t)
	ts.users.On("ListUsers", mock.Anything, mock.MatchedBy(func(f user.ListUsersFilter) bool {
		return f.Search != nil && *f.Search == "uma" && f.Limit == 5
	})).Return(user.ListUsersResponse{Users: []user.UserResponse{}, Page: 1, Limit: 5}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/users?search=uma&limit=5", "", &moderatorUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	ts.users.AssertExpectations(t)
}

func TestMyBalance_DefaultYear(t *testing.T) {
	ts := newTestServer(t)
	ts.balances.On("GetMyBalance", mock.Anything, actorOf(regularUser), "").
		Return(balance.BalanceResponse{UserEmail: regularUser.Email, Year: "2026"}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/balances/me", "", &regularUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	ts.balances.AssertExpectations(t)
}

func TestEditBalances_UsesPathID(t *testing.T) {
	const ledgerID = "01960000-0000-7000-8000-0000000000bb"
	ts := newTestServer(t)
	ts.balances.On("EditBalances", mock.Anything, actorOf(adminUser), mock.MatchedBy(func(req balance.EditBalancesRequest) bool {
		return req.ID == ledgerID && req.AnnualCredit != nil && *req.AnnualCredit == 25
	})).Return(balance.BalanceResponse{ID: ledgerID, AnnualCredit: 25}, nil)

	rec := ts.do(t, http.MethodPatch, "/api/v1/balances/"+ledgerID, `{"annualCredit":25}`, &adminUser)

	require.Equal(t, http.StatusOK, rec.Code)
	ts.balances.AssertExpectations(t)
}

func TestEditBalances_RejectsBodyIDMismatch(t *testing.T) {
	const ledgerID = "01960000-0000-7000-8000-0000000000bb"
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPatch, "/api/v1/balances/"+ledgerID,
		`{"id":"01960000-0000-7000-8000-0000000000cc","annualCredit":25}`, &adminUser)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.balances.AssertNotCalled(t, "EditBalances", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetBalance_NotFound(t *testing.T) {
	const ledgerID = "01960000-0000-7000-8000-0000000000bb"
	ts := newTestServer(t)
	ts.balances.On("GetBalance", mock.Anything, ledgerID).Return(balance.BalanceResponse{}, balance.ErrBalanceNotFound)

	rec := ts.do(t, http.MethodGet, "/api/v1/balances/"+ledgerID, "", &moderatorUser)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package user

import (
	"strings"
	"testing"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditUserRequest_Validate(t *testing.T) {
	id := uuid.Must(uuid.NewV7()).String()

	tests := []struct {
		name      string
		req       EditUserRequest
		wantField string
	}{
		{
			name: "valid",
			req:  EditUserRequest{ID: id, Phone: "+62 812 0000 1111", Department: "Engineering", Title: "Backend Engineer", Role: "MODERATOR"},
		},
		{
			name: "optional fields empty",
			req:  EditUserRequest{ID: id, Role: "USER"},
		},
		{
			name:      "phone too long",
			req:       EditUserRequest{ID: id, Phone: strings.Repeat("1", 51), Role: "USER"},
			wantField: "phone",
		},
		{
			name:      "department too long",
			req:       EditUserRequest{ID: id, Department: strings.Repeat("d", 256), Role: "USER"},
			wantField: "department",
		},
		{
			name:      "unknown role",
			req:       EditUserRequest{ID: id, Role: "OWNER"},
			wantField: "role",
		},
		{
			name:      "missing role",
			req:       EditUserRequest{ID: id},
			wantField: "role",
		},
		{
			name:      "invalid id",
			req:       EditUserRequest{ID: "42", Role: "USER"},
			wantField: "id",
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

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermissionBalanceManage))
	assert.True(t, HasPermission(RoleModerator, PermissionLeaveDecide))
	assert.False(t, HasPermission(RoleModerator, PermissionUserManage))
	assert.True(t, HasPermission(RoleUser, PermissionLeaveCreate))
	assert.False(t, HasPermission(RoleUser, PermissionStatsView))
	assert.False(t, HasPermission(Role("GUEST"), PermissionViewOwnProfile))
}

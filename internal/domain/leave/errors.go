package leave

import "errors"

var (
	ErrLeaveNotFound         = errors.New("leave not found")
	ErrLeaveExists           = errors.New("Leave entry already exists")
	ErrInvalidDateRange      = errors.New("end date must not be before start date")
	ErrLeaveAlreadyProcessed = errors.New("leave already processed")
	ErrSubmitForOtherUser    = errors.New("cannot submit leave for another user")
	ErrLeaveAccessDenied     = errors.New("not allowed to view this leave")
)

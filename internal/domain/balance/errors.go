package balance

import "errors"

var (
	ErrBalanceNotFound     = errors.New("balance not found")
	ErrBalanceExists       = errors.New("balance already exists for this year")
	ErrInsufficientBalance = errors.New("Insufficient leave balance")
	ErrUnknownCategory     = errors.New("unknown leave category")
	ErrInvalidDays         = errors.New("days must be positive")
)

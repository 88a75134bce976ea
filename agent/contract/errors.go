package contract

import "errors"

var (
	ErrEmptyInput         = errors.New("user input is empty")
	ErrPlannerUnavailable = errors.New("planner upstream unavailable")
	ErrPlannerOutput      = errors.New("planner output is malformed")
	ErrValidation         = errors.New("validation failed")
)

package alfred

import "errors"

var (
	ErrInvalidTool       = errors.New("invalid tool specification")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrToolNameConflict  = errors.New("tool name conflict")
	ErrToolNotFound      = errors.New("tool not found")
	ErrInvalidArguments  = errors.New("invalid tool arguments")
	ErrLoopLimitExceeded = errors.New("loop limit exceeded")
)

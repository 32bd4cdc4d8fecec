package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrModelNotConfigured = &AppError{Code: "LLM_001", Message: "no inference endpoint configured"}
	ErrModelUnavailable   = &AppError{Code: "LLM_002", Message: "inference endpoint unavailable"}
	ErrEmptyCompletion    = &AppError{Code: "LLM_003", Message: "completion carried no usable message"}

	ErrToolNotFound   = &AppError{Code: "TOOL_001", Message: "tool not found"}
	ErrToolBadArgs    = &AppError{Code: "TOOL_002", Message: "tool arguments failed validation"}
	ErrToolBadSchema  = &AppError{Code: "TOOL_003", Message: "tool input schema does not compile"}
	ErrToolDuplicate  = &AppError{Code: "TOOL_004", Message: "tool name already registered"}
	ErrCommandBlocked = &AppError{Code: "TOOL_005", Message: "command blocked by shell guard"}

	ErrChannelNotConfigured = &AppError{Code: "CHAN_001", Message: "channel not configured"}
	ErrChannelUnavailable   = &AppError{Code: "CHAN_002", Message: "channel unavailable"}

	ErrInternal = &AppError{Code: "GEN_001", Message: "internal error"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

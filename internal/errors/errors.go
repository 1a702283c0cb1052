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
	ErrConfigInvalid = &AppError{Code: "CONFIG_001", Message: "invalid configuration"}

	ErrMedicationNotFound = &AppError{Code: "MED_001", Message: "medication not found"}
	ErrOutOfStock         = &AppError{Code: "MED_002", Message: "medication out of stock"}
	ErrAlreadyTaken       = &AppError{Code: "MED_003", Message: "dose already confirmed"}
	ErrInvalidStatus      = &AppError{Code: "MED_004", Message: "invalid medication status"}

	ErrStorageCorrupted   = &AppError{Code: "STORE_001", Message: "stored data is corrupted"}
	ErrStorageUnavailable = &AppError{Code: "STORE_002", Message: "durable storage unavailable"}

	ErrSessionNotFound = &AppError{Code: "AUTH_001", Message: "no active session"}
	ErrUnauthorized    = &AppError{Code: "AUTH_002", Message: "unauthorized"}
	ErrRateLimited     = &AppError{Code: "AUTH_003", Message: "too many attempts"}

	ErrPharmacyNotFound = &AppError{Code: "PHARM_001", Message: "pharmacy not found"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
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

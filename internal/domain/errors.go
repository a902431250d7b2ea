package domain

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced in send results, message records and API responses.
const (
	ErrCodeInvalidPhone               = "ERR_INVALID_PHONE"
	ErrCodeMediaUnsupported           = "ERR_MEDIA_UNSUPPORTED"
	ErrCodeButtonVariablesUnsupported = "ERR_BUTTON_VARIABLES_UNSUPPORTED"
	ErrCodeTemplateNotReady           = "ERR_TEMPLATE_NOT_READY"
	ErrCodeAPIRequestFailed           = "ERR_API_REQUEST_FAILED"
	ErrCodeWebhookFailed              = "ERR_WEBHOOK_FAILED"
	ErrCodeInternal                   = "ERR_INTERNAL"
)

// Validation errors. They are detected before any send and never retried.
var (
	ErrInvalidPhoneFormat        = errors.New("invalid phone format")
	ErrInvalidURL                = errors.New("invalid media url")
	ErrUnsupportedMimeType       = errors.New("unsupported mime type")
	ErrSizeExceeded              = errors.New("media size exceeded")
	ErrMediaNetwork              = errors.New("media validation request failed")
	ErrMediaKindRequired         = errors.New("header media type required when header media url is set")
	ErrUnsupportedButtonVariable = errors.New("variables in buttons are not supported, use body variables for dynamic urls")
	ErrInvalidTemplateName       = errors.New("invalid template name")
)

var validationErrors = []error{
	ErrInvalidPhoneFormat,
	ErrInvalidURL,
	ErrUnsupportedMimeType,
	ErrSizeExceeded,
	ErrMediaNetwork,
	ErrMediaKindRequired,
	ErrUnsupportedButtonVariable,
	ErrInvalidTemplateName,
}

func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RepositoryError marks a failure of the lead/message store so callers can tell
// it apart from validation and transport failures.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

func NewRepositoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RepositoryError{Op: op, Err: err}
}

func IsRepositoryError(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re)
}

// ErrorCode maps err to its stable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPhoneFormat):
		return ErrCodeInvalidPhone
	case errors.Is(err, ErrUnsupportedButtonVariable):
		return ErrCodeButtonVariablesUnsupported
	case errors.Is(err, ErrInvalidTemplateName):
		return ErrCodeTemplateNotReady
	case errors.Is(err, ErrInvalidURL),
		errors.Is(err, ErrUnsupportedMimeType),
		errors.Is(err, ErrSizeExceeded),
		errors.Is(err, ErrMediaNetwork),
		errors.Is(err, ErrMediaKindRequired):
		return ErrCodeMediaUnsupported
	default:
		return ErrCodeInternal
	}
}

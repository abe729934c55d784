// Package services implements the account and file components. Every error
// they return is an errx error whose code tells the HTTP layer what to say.
package services

import "github.com/code19m/errx"

const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotFound          = "NOT_FOUND"
	CodeOTPInvalid        = "OTP_INVALID"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeUploadFailed      = "UPLOAD_FAILED"
	CodeDeletionFailed    = "DELETION_FAILED"
	CodeMailFailed        = "MAIL_FAILED"
	CodeRecordWriteFailed = "RECORD_WRITE_FAILED"
	CodeInternal          = "INTERNAL"
)

func newError(code string, t errx.Type, msg string) error {
	return errx.New(msg, errx.WithCode(code), errx.WithType(t))
}

func wrapError(err error, code string, t errx.Type) error {
	return errx.Wrap(err, errx.WithCode(code), errx.WithType(t))
}

func validationError(msg string) error {
	return newError(CodeValidation, errx.T_Validation, msg)
}

func notFoundError(msg string) error {
	return newError(CodeNotFound, errx.T_NotFound, msg)
}

func unauthorizedError(msg string) error {
	return newError(CodeUnauthorized, errx.T_Authentication, msg)
}

func internalError(err error) error {
	return wrapError(err, CodeInternal, errx.T_Internal)
}

package handlers

import (
	"net/http"

	"github.com/code19m/errx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pawanx64/File-Sharing-Backend/services"
)

// Messages returned instead of the underlying cause for server-side failures.
var genericMessages = map[string]string{
	services.CodeUploadFailed:      "Failed to upload file",
	services.CodeRecordWriteFailed: "Error saving file record",
	services.CodeDeletionFailed:    "Failed to delete file from storage",
	services.CodeMailFailed:        "Failed to send OTP.",
	services.CodeInternal:          "Server error.",
}

func statusFor(e errx.ErrorX) int {
	switch e.Code() {
	case services.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case services.CodeUploadFailed, services.CodeOTPInvalid:
		return http.StatusBadRequest
	}

	switch e.Type() {
	case errx.T_Validation:
		return http.StatusBadRequest
	case errx.T_Authentication:
		return http.StatusUnauthorized
	case errx.T_Forbidden:
		return http.StatusForbidden
	case errx.T_NotFound:
		return http.StatusNotFound
	case errx.T_Conflict:
		return http.StatusConflict
	case errx.T_Throttling:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its HTTP status and a JSON body of
// {"error", "code"}. Causes of server-side failures are logged, never sent.
func writeError(c *gin.Context, log *zap.SugaredLogger, err error) {
	e := errx.AsErrorX(err)
	status := statusFor(e)

	msg, generic := genericMessages[e.Code()]
	if !generic {
		if status >= http.StatusInternalServerError {
			msg = genericMessages[services.CodeInternal]
		} else {
			msg = e.Error()
		}
	}
	if status >= http.StatusInternalServerError {
		log.Errorw("request failed", "route", c.FullPath(), "code", e.Code(), "type", e.Type().String(), "error", e.Error())
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": e.Code()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": services.CodeValidation})
}

func notFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": msg, "code": services.CodeNotFound})
}

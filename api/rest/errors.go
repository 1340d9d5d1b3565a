package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/arenaforge/gameapi/access"
	"github.com/arenaforge/gameapi/auth"
	mw "github.com/arenaforge/gameapi/middleware"
	"github.com/arenaforge/gameapi/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCharacterNotFound),
		errors.Is(err, service.ErrEquipmentNotFound),
		errors.Is(err, service.ErrInstanceNotFound),
		errors.Is(err, service.ErrNotOwned):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrDuplicateCharacterName),
		errors.Is(err, service.ErrDuplicateEquipmentName),
		errors.Is(err, service.ErrAlreadyOwned):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": msg}. Server-side failures are logged and
// their details withheld from the client.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		log.Error("storage failure", zap.Error(err), zap.String("trace_id", mw.GetTraceID(c)))
		msg = "service unavailable"
	case http.StatusInternalServerError:
		log.Error("request failed", zap.Error(err), zap.String("trace_id", mw.GetTraceID(c)))
		msg = "internal error"
	case http.StatusUnauthorized:
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.JSON(status, gin.H{"error": msg})
}

// pathID parses a positive int64 path parameter. It writes a 400 and returns
// false on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

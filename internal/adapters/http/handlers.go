package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mbj/siteapi/internal/domain/entities"
)

// CredentialContextKey is where the auth middleware stores the caller's
// entities.Credential for the admin handlers.
const CredentialContextKey = "credential"

// Request/Response types
type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// NewErrorResponse builds the {ok:false,error} envelope
func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{OK: false, Error: msg}
}

func credentialFromContext(c echo.Context) entities.Credential {
	cred, ok := c.Get(CredentialContextKey).(entities.Credential)
	if !ok {
		return entities.Credential{RemoteIP: c.RealIP()}
	}
	return cred
}

// toHTTPError maps domain errors onto status codes. fallback is the message
// used for store failures the caller must not see in detail.
func toHTTPError(err error, fallback string) *echo.HTTPError {
	var (
		unknown    *entities.UnknownResourceError
		validation *entities.ValidationError
	)

	switch {
	case errors.As(err, &unknown):
		return echo.NewHTTPError(http.StatusNotFound, "Not found").SetInternal(err)
	case errors.Is(err, entities.ErrMissingToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token").SetInternal(err)
	case errors.Is(err, entities.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token").SetInternal(err)
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, validation.Message).SetInternal(err)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback).SetInternal(err)
}

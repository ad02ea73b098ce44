package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/enso-go/pkg/enso"
	"github.com/labstack/echo/v4"
)

// JSONErrorHandler returns an echo error handler that always answers with
// an ErrorResponse, including for 404s and key-auth failures.
func JSONErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// upstreamStatus maps a library error to the status the gateway answers with.
// Client errors reported by Enso pass through; everything else upstream is a
// bad gateway.
func upstreamStatus(err error) int {
	var apiErr *enso.APIError
	switch {
	case errors.Is(err, enso.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func upstreamDetails(err error) map[string]any {
	details := map[string]any{"err": err.Error()}
	var apiErr *enso.APIError
	if errors.As(err, &apiErr) {
		details["upstream_status"] = apiErr.StatusCode
		if apiErr.Message != "" {
			details["upstream_message"] = apiErr.Message
		}
	}
	return details
}

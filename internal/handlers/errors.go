package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	apperrors "github.com/umalmyha/intake/internal/errors"
	"github.com/umalmyha/intake/internal/validation"
)

const (
	unavailableMessage = "service is temporarily unavailable, please try again later"
	internalMessage    = "internal server error"
)

type errorMessage struct {
	Message string `json:"message"`
}

// ErrorHandler renders errors raised by handlers, details are logged and never exposed to client
func ErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)

		entry := logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
			"status": status,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("error occurred on http request processing")
		} else {
			entry.Debug("http request rejected")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}

		if err != nil {
			logger.WithError(err).Error("failed to send error response")
		}
	}
}

func errorResponse(err error) (int, any) {
	if errors.Is(err, apperrors.ErrForgedRequest) {
		return http.StatusForbidden, &errorMessage{Message: err.Error()}
	}

	var pldErr *validation.PayloadError
	if errors.As(err, &pldErr) {
		return http.StatusUnprocessableEntity, pldErr
	}

	var dupErr *apperrors.DuplicateEntryErr
	if errors.As(err, &dupErr) {
		return http.StatusConflict, dupErr
	}

	var notFoundErr *apperrors.EntryNotFoundErr
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound, &errorMessage{Message: notFoundErr.Error()}
	}

	var storageErr *apperrors.StorageErr
	if errors.As(err, &storageErr) {
		return http.StatusServiceUnavailable, &errorMessage{Message: unavailableMessage}
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code >= http.StatusInternalServerError {
			return echoErr.Code, &errorMessage{Message: internalMessage}
		}
		return echoErr.Code, &errorMessage{Message: httpErrorMessage(echoErr)}
	}

	// malformed queries are defects as well as anything unknown
	return http.StatusInternalServerError, &errorMessage{Message: internalMessage}
}

func httpErrorMessage(err *echo.HTTPError) string {
	if msg, ok := err.Message.(string); ok {
		return msg
	}
	return http.StatusText(err.Code)
}

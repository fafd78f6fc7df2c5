package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/VanshSharma0/MyTube/internal/models"
	"github.com/VanshSharma0/MyTube/internal/service"
	"github.com/VanshSharma0/MyTube/internal/util"
)

// ErrorHandler translates every failure into the response envelope.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var responseErr util.ResponseError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &responseErr):
			status = responseErr.Status
			message = responseErr.Msg
		case isUnauthorizedTokenError(err):
			status = http.StatusUnauthorized
			message = err.Error()
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		default:
			log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		}

		if status >= http.StatusInternalServerError {
			log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
		}

		if err := c.JSON(status, models.NewAPIResponse(status, nil, message)); err != nil {
			log.Errorw("failed to write json response", "error", err)
		}
	}
}

func isUnauthorizedTokenError(err error) bool {
	return errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrTokenInvalid) ||
		errors.Is(err, service.ErrTokenMalformed)
}

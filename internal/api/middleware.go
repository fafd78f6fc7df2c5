package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/VanshSharma0/MyTube/internal/models"
	"github.com/VanshSharma0/MyTube/internal/service"
	redisstorage "github.com/VanshSharma0/MyTube/internal/storage/redis"
	"github.com/VanshSharma0/MyTube/internal/util"
)

const bearerPrefix = "Bearer "

// RequireAuth gates authenticated routes. The access token is taken from the
// accessToken cookie first, then from the Authorization header. The resolved
// account (minus password hash and refresh token) is attached to the context.
func RequireAuth(authService *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken := extractAccessToken(c)
			if rawToken == "" {
				return util.NewResponseError(http.StatusUnauthorized, "Unauthorized request: no token provided. Please log in.")
			}

			user, err := authService.VerifyAccessToken(c.Request().Context(), rawToken)
			if err != nil {
				return err
			}

			c.Set(models.UserContextKey, user.Public())

			return next(c)
		}
	}
}

func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(models.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}

	return ""
}

// RateLimit throttles a route per client IP. Redis being down does not lock
// users out: limiter errors are logged and the request passes.
func RateLimit(limiter *redisstorage.RateLimiter, log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				log.Errorw("Rate limiter failure", "error", err)
				return next(c)
			}
			if !allowed {
				return util.NewResponseError(http.StatusTooManyRequests, "Too many requests. Please try again later.")
			}
			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Errorw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}

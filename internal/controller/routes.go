package controller

import (
	"github.com/labstack/echo/v4"
)

func RegisterHandlersWithBaseURL(e *echo.Echo, c *Controller, base string, authMW, limitMW echo.MiddlewareFunc) {
	g := e.Group(base)
	g.GET("/ping", c.CheckServer)

	users := g.Group("/users")
	users.POST("/register", c.Register, limitMW)
	users.POST("/login", c.Login, limitMW)
	users.POST("/refresh-token", c.RefreshToken)
	users.POST("/logout", c.Logout, authMW)
	users.GET("/current-user", c.CurrentUser, authMW)
}

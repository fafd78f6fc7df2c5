package controller

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/VanshSharma0/MyTube/internal/models"
	"github.com/VanshSharma0/MyTube/internal/service"
	"github.com/VanshSharma0/MyTube/internal/util"
)

// Uploader puts an uploaded file somewhere public and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
}

type Controller struct {
	authService  *service.AuthService
	media        Uploader
	log          *zap.SugaredLogger
	cookieSecure bool
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewController(
	authService *service.AuthService,
	media Uploader,
	sc *util.ServerConfig,
	tc *util.TokenConfig,
	log *zap.SugaredLogger,
) *Controller {
	return &Controller{
		authService:  authService,
		media:        media,
		log:          log,
		cookieSecure: sc.CookieSecure,
		accessTTL:    tc.AccessTTL,
		refreshTTL:   tc.RefreshTTL,
	}
}

// (GET /ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, models.NewAPIResponse(http.StatusOK, nil, "ok"))
}

// (POST /users/register).
func (c *Controller) Register(ctx echo.Context) error {
	params := service.RegisterParams{
		FullName: ctx.FormValue("fullname"),
		Username: ctx.FormValue("username"),
		Email:    ctx.FormValue("email"),
		Password: ctx.FormValue("password"),
	}

	avatarHeader, err := ctx.FormFile("avatar")
	if err != nil {
		return util.NewResponseError(http.StatusBadRequest, "Avatar is required")
	}

	avatarURL, err := c.uploadFormFile(ctx.Request().Context(), avatarHeader)
	if err != nil {
		c.log.Errorw("Avatar upload failed", "error", err)
		return util.NewResponseError(http.StatusBadRequest, "Error uploading images")
	}
	params.AvatarURL = avatarURL

	if coverHeader, err := ctx.FormFile("coverImage"); err == nil {
		coverURL, err := c.uploadFormFile(ctx.Request().Context(), coverHeader)
		if err != nil {
			c.log.Errorw("Cover image upload failed", "error", err)
			return util.NewResponseError(http.StatusBadRequest, "Error uploading images")
		}
		params.CoverImageURL = coverURL
	}

	user, err := c.authService.Register(ctx.Request().Context(), params)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, models.NewAPIResponse(http.StatusCreated, user, "User registered successfully"))
}

// (POST /users/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := c.authService.Login(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	c.setAuthCookies(ctx, resp.AccessToken, resp.RefreshToken)

	return ctx.JSON(http.StatusOK, models.NewAPIResponse(http.StatusOK, resp, "User logged in successfully"))
}

// (POST /users/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	user, ok := ctx.Get(models.UserContextKey).(*models.PublicUser)
	if !ok {
		return util.NewResponseError(http.StatusBadRequest, "User not logged in or invalid request")
	}

	if err := c.authService.Logout(ctx.Request().Context(), user.ID); err != nil {
		return err
	}

	c.clearAuthCookies(ctx)

	return ctx.JSON(http.StatusOK, models.NewAPIResponse(http.StatusOK, nil, "User logged out successfully"))
}

// (POST /users/refresh-token).
//
// The refresh token is accepted from the cookie or the request body.
func (c *Controller) RefreshToken(ctx echo.Context) error {
	rawToken := ""
	if cookie, err := ctx.Cookie(models.RefreshTokenCookie); err == nil {
		rawToken = cookie.Value
	}
	if rawToken == "" {
		var req models.RefreshRequest
		if err := ctx.Bind(&req); err == nil {
			rawToken = req.RefreshToken
		}
	}

	pair, err := c.authService.Refresh(ctx.Request().Context(), rawToken)
	if err != nil {
		return err
	}

	c.setAuthCookies(ctx, pair.AccessToken, pair.RefreshToken)

	return ctx.JSON(http.StatusOK, models.NewAPIResponse(http.StatusOK, pair, "Access token refreshed successfully"))
}

// (GET /users/current-user).
func (c *Controller) CurrentUser(ctx echo.Context) error {
	user, ok := ctx.Get(models.UserContextKey).(*models.PublicUser)
	if !ok {
		return util.NewResponseError(http.StatusUnauthorized, "Unauthorized request: no token provided. Please log in.")
	}

	return ctx.JSON(http.StatusOK, models.NewAPIResponse(http.StatusOK, user, "Current user fetched successfully"))
}

func (c *Controller) uploadFormFile(ctx context.Context, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	return c.media.Upload(ctx, file, header.Size, header.Header.Get(echo.HeaderContentType))
}

func (c *Controller) setAuthCookies(ctx echo.Context, accessToken, refreshToken string) {
	ctx.SetCookie(c.newCookie(models.AccessTokenCookie, accessToken, int(c.accessTTL.Seconds())))
	ctx.SetCookie(c.newCookie(models.RefreshTokenCookie, refreshToken, int(c.refreshTTL.Seconds())))
}

func (c *Controller) clearAuthCookies(ctx echo.Context) {
	ctx.SetCookie(c.newCookie(models.AccessTokenCookie, "", -1))
	ctx.SetCookie(c.newCookie(models.RefreshTokenCookie, "", -1))
}

func (c *Controller) newCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

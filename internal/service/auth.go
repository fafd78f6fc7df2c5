package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/VanshSharma0/MyTube/internal/models"
	"github.com/VanshSharma0/MyTube/internal/storage"
	"github.com/VanshSharma0/MyTube/internal/util"
)

type AuthService struct {
	users  storage.UserRepository
	tokens *TokenService
	log    *zap.SugaredLogger
}

func NewAuthService(users storage.UserRepository, tokens *TokenService, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

type RegisterParams struct {
	FullName      string
	Username      string
	Email         string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*models.PublicUser, error) {
	if params.FullName == "" || params.Username == "" || params.Email == "" || params.Password == "" {
		return nil, util.NewResponseError(http.StatusBadRequest, "All fields are required")
	}

	if _, err := s.users.GetUserByUsernameOrEmail(ctx, params.Username, params.Email); err == nil {
		return nil, util.NewResponseError(http.StatusConflict, "User already exists")
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		ID:            uuid.NewString(),
		Username:      params.Username,
		Email:         params.Email,
		FullName:      params.FullName,
		AvatarURL:     params.AvatarURL,
		CoverImageURL: params.CoverImageURL,
		PasswordHash:  string(passwordHash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, util.NewResponseError(http.StatusConflict, "User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Infow("User registered", "userID", user.ID, "username", user.Username)

	return user.Public(), nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username == "" && req.Email == "" {
		return nil, util.NewResponseError(http.StatusBadRequest, "Email or username is required")
	}

	user, err := s.users.GetUserByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, util.NewResponseError(http.StatusNotFound, "User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, util.NewResponseError(http.StatusUnauthorized, "Invalid password")
	}

	pair, err := s.IssueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Infow("User logged in", "userID", user.ID)

	return &models.LoginResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// IssueTokenPair mints a fresh access+refresh pair and persists the refresh
// token as the user's single active session. One write, no retry: an
// unpersisted session is unusable, so a storage failure is fatal to the call.
func (s *AuthService) IssueTokenPair(ctx context.Context, userID string) (*models.TokenPairResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, util.NewResponseError(http.StatusNotFound, "User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	accessToken, err := s.tokens.CreateAccessToken(user.ID)
	if err != nil {
		return nil, util.NewResponseError(http.StatusInternalServerError, "Error generating tokens")
	}

	refreshToken, err := s.tokens.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, util.NewResponseError(http.StatusInternalServerError, "Error generating tokens")
	}

	if _, err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		s.log.Errorw("Failed to persist refresh token", "userID", user.ID, "error", err)
		return nil, util.NewResponseError(http.StatusInternalServerError, "Error generating tokens")
	}

	return &models.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// VerifyAccessToken resolves a raw access token to the account it belongs to.
// Expired and malformed tokens fail with distinct messages so clients know
// whether a refresh attempt is worthwhile.
func (s *AuthService) VerifyAccessToken(ctx context.Context, rawToken string) (*models.User, error) {
	userID, err := s.tokens.ParseAccessToken(rawToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			return nil, util.NewResponseError(http.StatusUnauthorized, "Session expired. Please log in again.")
		case errors.Is(err, ErrTokenMalformed):
			return nil, util.NewResponseError(http.StatusUnauthorized, "Invalid token. Please log in again.")
		default:
			return nil, util.NewResponseError(http.StatusUnauthorized, "Token verification failed")
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, util.NewResponseError(http.StatusUnauthorized, "Invalid access token: user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// Refresh rotates the token pair. The presented token must both decode with
// the refresh secret AND equal the stored value; the second check is the
// revocation mechanism, so a superseded token fails here even before expiry.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*models.TokenPairResponse, error) {
	if rawToken == "" {
		return nil, util.NewResponseError(http.StatusUnauthorized, "Unauthorized request: no token provided")
	}

	userID, err := s.tokens.ParseRefreshToken(rawToken)
	if err != nil {
		return nil, util.NewResponseError(http.StatusUnauthorized, "%s", err.Error())
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, util.NewResponseError(http.StatusUnauthorized, "Invalid refresh token")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(rawToken), []byte(user.RefreshToken)) != 1 {
		return nil, util.NewResponseError(http.StatusUnauthorized, "Refresh token is expired or used")
	}

	return s.IssueTokenPair(ctx, user.ID)
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.log.Infow("User logged out", "userID", userID)

	return nil
}

package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/validate"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
	verifyTokenTTL  = 24 * time.Hour
	resendCooldown  = 60 * time.Second

	bcryptCost = 12
)

type AuthService struct {
	users     *repository.UserRepo
	redis     *redis.Client
	email     *EmailService
	jwtSecret string
}

func NewAuthService(users *repository.UserRepo, redisClient *redis.Client, email *EmailService, jwtSecret string) *AuthService {
	return &AuthService{
		users:     users,
		redis:     redisClient,
		email:     email,
		jwtSecret: jwtSecret,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if fields := validate.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{Message: "an account with this email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}
	if err := s.redis.Set(ctx, "email_verify:"+token, user.ID.String(), verifyTokenTTL).Err(); err != nil {
		return nil, fmt.Errorf("storing verification token: %w", err)
	}

	s.email.SendVerification(user.Email, user.FullName, token)

	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return &ValidationError{Fields: map[string]string{"token": "this field is required"}}
	}

	key := "email_verify:" + token
	userIDStr, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return &NotFoundError{Message: "verification token is invalid or has expired"}
	}
	if err != nil {
		return fmt.Errorf("looking up verification token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("parsing user id from token: %w", err)
	}

	if err := s.users.VerifyEmail(ctx, userID); err != nil {
		return fmt.Errorf("marking user verified: %w", err)
	}

	s.redis.Del(ctx, key)
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return &ValidationError{Fields: map[string]string{"email": "this field is required"}}
	}

	limitKey := "resend_limit:" + email
	set, err := s.redis.SetNX(ctx, limitKey, "1", resendCooldown).Result()
	if err != nil {
		return fmt.Errorf("checking resend limit: %w", err)
	}
	if !set {
		return &RateLimitError{Message: "please wait before requesting another verification email"}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		// don't reveal whether the account exists
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}
	if user.IsVerified {
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return fmt.Errorf("generating verification token: %w", err)
	}
	if err := s.redis.Set(ctx, "email_verify:"+token, user.ID.String(), verifyTokenTTL).Err(); err != nil {
		return fmt.Errorf("storing verification token: %w", err)
	}

	s.email.SendVerification(user.Email, user.FullName, token)
	return nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.AuthTokens, error) {
	if fields := validate.Struct(req); fields != nil {
		return nil, nil, &ValidationError{Fields: fields}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, &UnauthorizedError{Message: "invalid email or password"}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, &UnauthorizedError{Message: "invalid email or password"}
	}

	if !user.IsVerified {
		return nil, nil, &ForbiddenError{Message: "email address is not verified"}
	}
	if !user.IsActive {
		return nil, nil, &ForbiddenError{Message: "this account has been deactivated"}
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, nil, fmt.Errorf("updating last login: %w", err)
	}

	return user, tokens, nil
}

func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, &ValidationError{Fields: map[string]string{"refresh_token": "this field is required"}}
	}

	key := "refresh:" + refreshToken
	userIDStr, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, &UnauthorizedError{Message: "refresh token is invalid or has expired"}
	}
	if err != nil {
		return nil, fmt.Errorf("looking up refresh token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("parsing user id from refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &UnauthorizedError{Message: "account no longer exists"}
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if !user.IsActive {
		return nil, &ForbiddenError{Message: "this account has been deactivated"}
	}

	// rotate: old token is single-use
	s.redis.Del(ctx, key)

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.redis.Del(ctx, "refresh:"+refreshToken).Err()
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req models.ChangePasswordRequest) error {
	if fields := validate.Struct(req); fields != nil {
		return &ValidationError{Fields: fields}
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: "user not found"}
	}
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return &UnauthorizedError{Message: "current password is incorrect"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshToken, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}
	if err := s.redis.Set(ctx, "refresh:"+refreshToken, user.ID.String(), refreshTokenTTL).Err(); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"admin": user.IsAdmin,
		"plan":  user.Plan,
		"iat":   now.Unix(),
		"exp":   now.Add(accessTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Typed service errors. Handlers map these onto HTTP status codes.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

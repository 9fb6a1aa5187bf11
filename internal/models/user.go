package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan identifiers. Entitlements for each live in services.PlanLimits.
const (
	PlanFree     = "free"
	PlanStandard = "standard"
	PlanPremium  = "premium"
	PlanAcademic = "academic"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	AvatarURL    *string    `json:"avatar_url"`
	Bio          *string    `json:"bio"`
	Discipline   *string    `json:"discipline"`
	IsVerified   bool       `json:"is_verified"`
	IsActive     bool       `json:"is_active"`
	IsAdmin      bool       `json:"is_admin"`
	Plan         string     `json:"plan"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateProfileRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=2,max=120"`
	Bio        *string `json:"bio" validate:"omitempty,max=500"`
	Discipline *string `json:"discipline" validate:"omitempty,max=80"`
	AvatarURL  *string `json:"avatar_url" validate:"omitempty,url"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type SetPlanRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free standard premium academic"`
}

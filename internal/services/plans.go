package services

import (
	"context"
	"fmt"
	"time"

	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
)

// PlanLimits defines what each subscription tier is entitled to.
// Unlimited is expressed as -1. Monthly counters reset on a rolling
// 30-day window, not a calendar month.
type PlanLimits struct {
	MaxUploadBytes   int64
	MonthlyUploads   int
	MonthlyCritiques int
	MonthlyCourses   int
}

var planLimits = map[string]PlanLimits{
	models.PlanFree: {
		MaxUploadBytes:   10 << 20,
		MonthlyUploads:   5,
		MonthlyCritiques: 3,
		MonthlyCourses:   1,
	},
	models.PlanStandard: {
		MaxUploadBytes:   50 << 20,
		MonthlyUploads:   25,
		MonthlyCritiques: 20,
		MonthlyCourses:   5,
	},
	models.PlanPremium: {
		MaxUploadBytes:   200 << 20,
		MonthlyUploads:   -1,
		MonthlyCritiques: -1,
		MonthlyCourses:   20,
	},
	models.PlanAcademic: {
		MaxUploadBytes:   100 << 20,
		MonthlyUploads:   100,
		MonthlyCritiques: 75,
		MonthlyCourses:   15,
	},
}

// LimitsFor returns the entitlements for a plan. Unknown plans fall
// back to the free tier.
func LimitsFor(plan string) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[models.PlanFree]
}

// PlanService enforces per-plan usage limits against rolling 30-day
// counts from the database.
type PlanService struct {
	media     *repository.MediaRepo
	critiques *repository.CritiqueRepo
	courses   *repository.CourseRepo
}

func NewPlanService(media *repository.MediaRepo, critiques *repository.CritiqueRepo, courses *repository.CourseRepo) *PlanService {
	return &PlanService{media: media, critiques: critiques, courses: courses}
}

func (s *PlanService) CheckUploadAllowed(ctx context.Context, user *models.User, sizeBytes int64) error {
	limits := LimitsFor(user.Plan)

	if sizeBytes > limits.MaxUploadBytes {
		return &PlanLimitError{Message: fmt.Sprintf(
			"file exceeds the %d MiB upload limit for the %s plan", limits.MaxUploadBytes>>20, user.Plan)}
	}

	if limits.MonthlyUploads < 0 {
		return nil
	}
	count, err := s.media.CountByUserSince(ctx, user.ID, monthAgo())
	if err != nil {
		return fmt.Errorf("counting uploads: %w", err)
	}
	if count >= limits.MonthlyUploads {
		return &PlanLimitError{Message: fmt.Sprintf(
			"monthly upload limit of %d reached for the %s plan", limits.MonthlyUploads, user.Plan)}
	}
	return nil
}

func (s *PlanService) CheckCritiqueAllowed(ctx context.Context, user *models.User) error {
	limits := LimitsFor(user.Plan)
	if limits.MonthlyCritiques < 0 {
		return nil
	}
	count, err := s.critiques.CountByUserSince(ctx, user.ID, monthAgo())
	if err != nil {
		return fmt.Errorf("counting critiques: %w", err)
	}
	if count >= limits.MonthlyCritiques {
		return &PlanLimitError{Message: fmt.Sprintf(
			"monthly critique limit of %d reached for the %s plan", limits.MonthlyCritiques, user.Plan)}
	}
	return nil
}

func (s *PlanService) CheckCourseAllowed(ctx context.Context, user *models.User) error {
	limits := LimitsFor(user.Plan)
	if limits.MonthlyCourses < 0 {
		return nil
	}
	count, err := s.courses.CountByUserSince(ctx, user.ID, monthAgo())
	if err != nil {
		return fmt.Errorf("counting courses: %w", err)
	}
	if count >= limits.MonthlyCourses {
		return &PlanLimitError{Message: fmt.Sprintf(
			"monthly course limit of %d reached for the %s plan", limits.MonthlyCourses, user.Plan)}
	}
	return nil
}

// Usage is the current rolling-window consumption, reported alongside
// the limits on the profile endpoint.
type Usage struct {
	Uploads   int `json:"uploads"`
	Critiques int `json:"critiques"`
	Courses   int `json:"courses"`
}

func (s *PlanService) CurrentUsage(ctx context.Context, user *models.User) (Usage, error) {
	since := monthAgo()

	uploads, err := s.media.CountByUserSince(ctx, user.ID, since)
	if err != nil {
		return Usage{}, err
	}
	critiques, err := s.critiques.CountByUserSince(ctx, user.ID, since)
	if err != nil {
		return Usage{}, err
	}
	courses, err := s.courses.CountByUserSince(ctx, user.ID, since)
	if err != nil {
		return Usage{}, err
	}

	return Usage{Uploads: uploads, Critiques: critiques, Courses: courses}, nil
}

func monthAgo() time.Time {
	return time.Now().Add(-30 * 24 * time.Hour)
}

// PlanLimitError maps to 403 with a PLAN_LIMIT code so clients can
// distinguish entitlement failures from authorization failures.
type PlanLimitError struct {
	Message string
}

func (e *PlanLimitError) Error() string {
	return e.Message
}

package services

import (
	"context"
	"testing"

	"refyn-backend/internal/models"
)

func TestLimitsFor(t *testing.T) {
	tests := []struct {
		name     string
		plan     string
		expected PlanLimits
	}{
		{"free tier", models.PlanFree, PlanLimits{10 << 20, 5, 3, 1}},
		{"standard tier", models.PlanStandard, PlanLimits{50 << 20, 25, 20, 5}},
		{"premium tier", models.PlanPremium, PlanLimits{200 << 20, -1, -1, 20}},
		{"academic tier", models.PlanAcademic, PlanLimits{100 << 20, 100, 75, 15}},
		{"unknown plan falls back to free", "enterprise", PlanLimits{10 << 20, 5, 3, 1}},
		{"empty plan falls back to free", "", PlanLimits{10 << 20, 5, 3, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LimitsFor(tc.plan)
			if got != tc.expected {
				t.Errorf("LimitsFor(%q) = %+v, expected %+v", tc.plan, got, tc.expected)
			}
		})
	}
}

func TestCheckUploadAllowed_SizeLimit(t *testing.T) {
	svc := &PlanService{}
	user := &models.User{Plan: models.PlanFree}

	err := svc.CheckUploadAllowed(context.Background(), user, 11<<20)
	if err == nil {
		t.Fatal("Expected error for oversized upload")
	}
	if _, ok := err.(*PlanLimitError); !ok {
		t.Errorf("Expected *PlanLimitError, got %T", err)
	}
}

func TestCheckUploadAllowed_UnlimitedSkipsCount(t *testing.T) {
	// Premium has unlimited uploads, so the count query is never
	// issued and a nil media repo is safe here.
	svc := &PlanService{}
	user := &models.User{Plan: models.PlanPremium}

	if err := svc.CheckUploadAllowed(context.Background(), user, 1<<20); err != nil {
		t.Errorf("Expected nil for premium upload, got %v", err)
	}
}

func TestCheckCritiqueAllowed_Unlimited(t *testing.T) {
	svc := &PlanService{}
	user := &models.User{Plan: models.PlanPremium}

	if err := svc.CheckCritiqueAllowed(context.Background(), user); err != nil {
		t.Errorf("Expected nil for premium critique, got %v", err)
	}
}

func TestPlanLimitError_Message(t *testing.T) {
	err := &PlanLimitError{Message: "monthly upload limit of 5 reached for the free plan"}
	if err.Error() != "monthly upload limit of 5 reached for the free plan" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

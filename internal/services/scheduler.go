package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
)

// Scheduler runs periodic engagement jobs: a weekly activity digest and
// a daily nudge for users with a recently finished course. Only verified
// active accounts are contacted.
type Scheduler struct {
	cron      *cron.Cron
	users     *repository.UserRepo
	critiques *repository.CritiqueRepo
	courses   *repository.CourseRepo
	email     *EmailService
}

func NewScheduler(
	users *repository.UserRepo,
	critiques *repository.CritiqueRepo,
	courses *repository.CourseRepo,
	email *EmailService,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		users:     users,
		critiques: critiques,
		courses:   courses,
		email:     email,
	}
}

func (s *Scheduler) Start() {
	// Monday 09:00 server time
	s.cron.AddFunc("0 9 * * 1", s.runWeeklyDigest)
	// Daily 18:00 server time
	s.cron.AddFunc("0 18 * * *", s.runCourseReminders)

	s.cron.Start()
	log.Println("scheduler: started (weekly digest Mon 09:00, course reminders daily 18:00)")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runWeeklyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	recipients, err := s.users.ListDigestRecipients(ctx)
	if err != nil {
		log.Printf("scheduler: fetching digest recipients: %v", err)
		return
	}

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	sent := 0

	for _, user := range recipients {
		critiques, err := s.critiques.CountByUserSince(ctx, user.ID, weekAgo)
		if err != nil {
			log.Printf("scheduler: counting critiques for %s: %v", user.ID, err)
			continue
		}
		courses, err := s.courses.CountByUserSince(ctx, user.ID, weekAgo)
		if err != nil {
			log.Printf("scheduler: counting courses for %s: %v", user.ID, err)
			continue
		}

		// nothing happened, nothing to say
		if critiques == 0 && courses == 0 {
			continue
		}

		s.email.SendWeeklyDigest(user.Email, user.FullName, critiques, courses)
		sent++
	}

	log.Printf("scheduler: weekly digest sent to %d of %d recipients", sent, len(recipients))
}

func (s *Scheduler) runCourseReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	recipients, err := s.users.ListDigestRecipients(ctx)
	if err != nil {
		log.Printf("scheduler: fetching reminder recipients: %v", err)
		return
	}

	sent := 0
	for _, user := range recipients {
		courses, _, err := s.courses.ListByUser(ctx, user.ID, 5, 0)
		if err != nil {
			log.Printf("scheduler: listing courses for %s: %v", user.ID, err)
			continue
		}

		// remind about the most recent ready course that is between 2
		// and 3 days old, so each course is nudged at most once
		for _, c := range courses {
			if c.Status != models.CourseReady {
				continue
			}
			age := time.Since(c.CreatedAt)
			if age >= 48*time.Hour && age < 72*time.Hour {
				s.email.SendCourseReminder(user.Email, user.FullName, c.Title)
				sent++
			}
			break
		}
	}

	if sent > 0 {
		log.Printf("scheduler: sent %d course reminders", sent)
	}
}

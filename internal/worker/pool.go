package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/services"
)

type Pool struct {
	redis        *redis.Client
	gemini       *services.GeminiService
	extract      *services.ExtractService
	email        *services.EmailService
	userRepo     *repository.UserRepo
	jobRepo      *repository.JobRepo
	mediaRepo    *repository.MediaRepo
	critiqueRepo *repository.CritiqueRepo
	noteRepo     *repository.NoteRepo
	courseRepo   *repository.CourseRepo
	workerCount  int
	stopChan     chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	gemini *services.GeminiService,
	extract *services.ExtractService,
	email *services.EmailService,
	userRepo *repository.UserRepo,
	jobRepo *repository.JobRepo,
	mediaRepo *repository.MediaRepo,
	critiqueRepo *repository.CritiqueRepo,
	noteRepo *repository.NoteRepo,
	courseRepo *repository.CourseRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:        redisClient,
		gemini:       gemini,
		extract:      extract,
		email:        email,
		userRepo:     userRepo,
		jobRepo:      jobRepo,
		mediaRepo:    mediaRepo,
		critiqueRepo: critiqueRepo,
		noteRepo:     noteRepo,
		courseRepo:   courseRepo,
		workerCount:  workerCount,
		stopChan:     make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		models.QueueName(models.JobTypeCritique),
		models.QueueName(models.JobTypeCourse),
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		// Parse job
		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		// Skip jobs cancelled while queued
		if current, getErr := p.jobRepo.GetByID(ctx, job.ID); getErr == nil && current.Status == models.JobCancelled {
			p.redis.Del(ctx, lockKey)
			continue
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		// Update status
		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobProcessing)

		// Publish status update
		p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "status_update",
			Payload: models.StatusUpdate{
				JobID:    job.ID,
				Step:     1,
				StepName: "Preparing",
			},
		})

		// Execute handler
		var processErr error
		switch job.Type {
		case models.JobTypeCritique:
			processErr = p.processCritique(ctx, &job)
		case models.JobTypeCourse:
			processErr = p.processCourse(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processCritique(ctx context.Context, job *models.Job) error {
	critique, err := p.critiqueRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to get critique: %w", err)
	}

	media, err := p.mediaRepo.GetByID(ctx, critique.MediaID)
	if err != nil {
		return fmt.Errorf("failed to get media file: %w", err)
	}

	extracted := ""
	if media.Kind == models.MediaDocument {
		extracted, err = p.extract.ExtractText(media.FilePath)
		if err != nil {
			return fmt.Errorf("failed to extract document text: %w", err)
		}
	}

	p.mediaRepo.UpdateStatus(ctx, media.ID, models.MediaProcessing)

	if err := p.gemini.GenerateCritique(ctx, job, media, extracted); err != nil {
		return err
	}

	p.mediaRepo.UpdateStatus(ctx, media.ID, models.MediaCompleted)
	return nil
}

func (p *Pool) processCourse(ctx context.Context, job *models.Job) error {
	var config models.GenerateCourseRequest
	if err := json.Unmarshal(job.ConfigJSON, &config); err != nil {
		return fmt.Errorf("failed to parse course config: %w", err)
	}

	notes, err := p.noteRepo.GetManyByIDs(ctx, config.NoteIDs)
	if err != nil {
		return fmt.Errorf("failed to get source notes: %w", err)
	}
	if len(notes) == 0 {
		return fmt.Errorf("no source notes found for course")
	}

	return p.gemini.GenerateCourse(ctx, job, notes)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, models.JobCompleted)

	if job.Type == models.JobTypeCritique {
		go p.sendCritiqueReadyEmail(context.Background(), job)
	}

	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: getResultType(job.Type),
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) sendCritiqueReadyEmail(ctx context.Context, job *models.Job) {
	if p.email == nil || p.userRepo == nil {
		return
	}

	user, err := p.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		log.Printf("failed to load user %s for critique-ready email: %v", job.UserID, err)
		return
	}

	critique, err := p.critiqueRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		log.Printf("failed to load critique %s for critique-ready email: %v", job.ReferenceID, err)
		return
	}

	p.email.SendCritiqueReady(user.Email, user.FullName, critique.Title)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < models.JobMaxRetries {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobPending)
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		// Re-queue after backoff
		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), models.QueueName(job.Type), string(jobBytes))
		})
	} else {
		// Max retries reached
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobFailed)
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		switch job.Type {
		case models.JobTypeCritique:
			p.critiqueRepo.UpdateStatus(ctx, job.ReferenceID, models.CritiqueFailed)
		case models.JobTypeCourse:
			p.courseRepo.UpdateStatus(ctx, job.ReferenceID, models.CourseFailed)
		}

		p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}

func getResultType(jobType string) string {
	switch jobType {
	case models.JobTypeCritique:
		return "critique"
	case models.JobTypeCourse:
		return "course"
	default:
		return "job"
	}
}

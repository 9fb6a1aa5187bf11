package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"google.golang.org/api/option"

	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
)

type GeminiService struct {
	client       *genai.Client
	model        *genai.GenerativeModel
	critiqueRepo *repository.CritiqueRepo
	courseRepo   *repository.CourseRepo
	jobRepo      *repository.JobRepo
	redis        *redis.Client
	rateChan     chan struct{} // Token bucket
}

func NewGeminiService(
	apiKey string,
	concurrentReqs int,
	critiqueRepo *repository.CritiqueRepo,
	courseRepo *repository.CourseRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.4)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:       client,
		model:        model,
		critiqueRepo: critiqueRepo,
		courseRepo:   courseRepo,
		jobRepo:      jobRepo,
		redis:        redisClient,
		rateChan:     rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *GeminiService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, models.UserEventChannel(userID), string(data))
}

// GenerateCritique runs the full critique flow for a job: the uploaded
// work is sent to Gemini (as extracted text for documents, via the File
// API for everything else) and the structured critique is stored.
func (s *GeminiService) GenerateCritique(ctx context.Context, job *models.Job, media *models.MediaFile, extractedText string) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	var config struct {
		Focus  string `json:"focus"`
		Depth  string `json:"depth"`
		Prompt string `json:"prompt"`
	}
	json.Unmarshal(job.ConfigJSON, &config)

	prompt := buildCritiquePrompt(config.Focus, config.Depth, config.Prompt, media.Kind, extractedText)

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Step: 2, StepName: "Analyzing Work",
			EstimatedSecondsRemaining: 30,
		},
	})

	var resp *genai.GenerateContentResponse
	var err error

	if media.Kind == models.MediaDocument {
		resp, err = s.model.GenerateContent(ctx, genai.Text(prompt))
	} else {
		var fileData genai.FileData
		fileData, err = s.uploadMedia(ctx, media)
		if err != nil {
			return err
		}
		resp, err = s.model.GenerateContent(ctx, genai.Text(prompt), fileData)
	}
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	rawText := stripCodeFences(extractText(resp))

	var out struct {
		Body         string   `json:"body"`
		Strengths    string   `json:"strengths"`
		Improvements string   `json:"improvements"`
		Tags         []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(rawText), &out); err != nil {
		// Try to extract JSON object
		start := strings.Index(rawText, "{")
		end := strings.LastIndex(rawText, "}")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &out)
		}
	}

	if out.Body == "" {
		log.Println("WARNING: Gemini returned no critique body. Using fallback.")
		out.Body = "We could not generate a critique for this work. The file may have been blocked by safety filters or was not readable."
	}
	if len(out.Tags) > 8 {
		out.Tags = out.Tags[:8]
	}

	return s.critiqueRepo.UpdateGenerated(ctx, job.ReferenceID, out.Body, out.Strengths, out.Improvements, out.Tags)
}

// uploadMedia pushes the stored file through the Gemini File API and
// waits for it to become active.
func (s *GeminiService) uploadMedia(ctx context.Context, media *models.MediaFile) (genai.FileData, error) {
	data, err := os.ReadFile(media.FilePath)
	if err != nil {
		return genai.FileData{}, fmt.Errorf("reading media file: %w", err)
	}
	if len(data) == 0 {
		return genai.FileData{}, fmt.Errorf("media file is empty")
	}

	file, err := s.client.UploadFile(ctx, "", bytes.NewReader(data), &genai.UploadFileOptions{
		DisplayName: media.OriginalName,
		MIMEType:    media.MimeType,
	})
	if err != nil {
		return genai.FileData{}, fmt.Errorf("failed to upload media to Gemini: %w", err)
	}

	// Ensure remote file is cleaned up
	defer s.client.DeleteFile(context.Background(), file.Name)

	// Wait until file is active
	for i := 0; i < 20; i++ {
		current, getErr := s.client.GetFile(ctx, file.Name)
		if getErr != nil {
			return genai.FileData{}, fmt.Errorf("failed to get uploaded file status: %w", getErr)
		}

		if current.State == genai.FileStateActive {
			file = current
			break
		}
		if current.State == genai.FileStateFailed {
			return genai.FileData{}, fmt.Errorf("Gemini failed to process uploaded media file")
		}

		select {
		case <-ctx.Done():
			return genai.FileData{}, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	if file.State != genai.FileStateActive {
		return genai.FileData{}, fmt.Errorf("media file did not become active in time")
	}

	return genai.FileData{MIMEType: media.MimeType, URI: file.URI}, nil
}

// ChatAboutCritique answers a follow-up question about an existing
// critique. This runs synchronously on the request path, so it still
// goes through the rate bucket.
func (s *GeminiService) ChatAboutCritique(ctx context.Context, critique *models.Critique, history []models.ChatTurn, message string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	var b strings.Builder
	b.WriteString("You are a supportive but honest mentor for creative practitioners. ")
	b.WriteString("The user received the critique below on their work and is asking follow-up questions. ")
	b.WriteString("Answer concretely, referring back to the critique. Plain text only, no markdown headers.\n\n")

	b.WriteString("---CRITIQUE---\n")
	if critique.Body != nil {
		b.WriteString(*critique.Body)
	}
	if critique.Strengths != nil {
		b.WriteString("\n\nStrengths:\n")
		b.WriteString(*critique.Strengths)
	}
	if critique.Improvement != nil {
		b.WriteString("\n\nAreas to improve:\n")
		b.WriteString(*critique.Improvement)
	}
	b.WriteString("\n---END CRITIQUE---\n")

	chat := s.model.StartChat()
	chat.History = []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(b.String())}},
		{Role: "model", Parts: []genai.Part{genai.Text("Understood. I have the critique in front of me. Ask away.")}},
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == "model" {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Message)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	reply := strings.TrimSpace(extractText(resp))
	if reply == "" {
		return "", fmt.Errorf("Gemini returned an empty reply")
	}
	return reply, nil
}

// GenerateCourse builds a micro-course from the user's selected notes.
func (s *GeminiService) GenerateCourse(ctx context.Context, job *models.Job, notes []*models.Note) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	var config models.GenerateCourseRequest
	json.Unmarshal(job.ConfigJSON, &config)
	if config.NumParts < 1 || config.NumParts > 10 {
		config.NumParts = 4
	}

	prompt := buildCoursePrompt(config, notes)

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Step: 2, StepName: "Building Course",
			EstimatedSecondsRemaining: 45,
		},
	})

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := stripCodeFences(extractText(resp))

	var out struct {
		Title           string                  `json:"title"`
		Description     string                  `json:"description"`
		Parts           []models.Part           `json:"parts"`
		FinalAssignment *models.FinalAssignment `json:"final_assignment"`
	}
	if err := json.Unmarshal([]byte(rawText), &out); err != nil {
		start := strings.Index(rawText, "{")
		end := strings.LastIndex(rawText, "}")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &out)
		}
	}

	validParts := validateCourseParts(out.Parts)
	if len(validParts) == 0 {
		return fmt.Errorf("Gemini returned no usable course parts")
	}

	title := out.Title
	if config.Title != "" {
		title = config.Title
	}
	if title == "" {
		title = "Untitled Course"
	}

	var description *string
	if out.Description != "" {
		description = &out.Description
	}

	partsJSON, _ := json.Marshal(validParts)

	var assignmentJSON json.RawMessage
	if config.WithFinal && out.FinalAssignment != nil && out.FinalAssignment.TaskPrompt != "" {
		assignmentJSON, _ = json.Marshal(out.FinalAssignment)
	}

	return s.courseRepo.UpdateGenerated(ctx, job.ReferenceID, title, description, partsJSON, assignmentJSON, len(validParts))
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func buildCritiquePrompt(focus, depth, userPrompt, kind, extractedText string) string {
	var b strings.Builder

	b.WriteString("You are an experienced mentor and critic for creative work. Critique the provided ")
	switch kind {
	case models.MediaImage:
		b.WriteString("visual artwork")
	case models.MediaAudio:
		b.WriteString("audio recording (music or spoken performance)")
	case models.MediaVideo:
		b.WriteString("video performance")
	default:
		b.WriteString("written work")
	}
	b.WriteString(".\n\n")

	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n\n")

	switch focus {
	case "technique":
		b.WriteString("Focus: technical execution. Craft, precision, control of the medium.\n")
	case "composition":
		b.WriteString("Focus: composition and structure. Arrangement, balance, pacing, form.\n")
	case "narrative":
		b.WriteString("Focus: narrative and emotional content. What the work communicates and how.\n")
	default:
		b.WriteString("Focus: overall impression across technique, composition, and expression.\n")
	}

	switch depth {
	case "quick":
		b.WriteString("Depth: a quick read. Body around 150 words, top 2 strengths, top 2 improvements.\n")
	case "detailed":
		b.WriteString("Depth: a thorough analysis. Body around 600 words, at least 4 strengths and 4 improvements, each with a concrete next step.\n")
	default:
		b.WriteString("Depth: a standard critique. Body around 300 words, 3 strengths, 3 improvements.\n")
	}

	b.WriteString(`
Tone: honest and specific, never cruel. Point at concrete details of the work, not generalities.

JSON schema:
{"body": "string", "strengths": "string (bulleted with - )", "improvements": "string (bulleted with - )", "tags": ["3-8 short topical tags"]}
`)

	if userPrompt != "" {
		b.WriteString("\nThe creator asked specifically: ")
		b.WriteString(userPrompt)
		b.WriteString("\n")
	}

	if kind == models.MediaDocument {
		b.WriteString("\n---WORK START---\n")
		b.WriteString(extractedText)
		b.WriteString("\n---WORK END---\n")
	}

	return b.String()
}

func buildCoursePrompt(config models.GenerateCourseRequest, notes []*models.Note) string {
	var b strings.Builder

	b.WriteString("You are an expert curriculum designer. Build a short sequential micro-course from the learner's own notes below.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n\n")

	b.WriteString(fmt.Sprintf("The course must have exactly %d parts, in a deliberate learning order.\n", config.NumParts))

	level := config.Level
	if level == "" {
		level = "intermediate"
	}
	b.WriteString(fmt.Sprintf("Pitch the material at a %s level.\n", level))

	b.WriteString(`Each part needs a lesson (300-500 words, plain text with short paragraphs) and a quiz of 2-4 multiple choice questions checking that part's lesson. Each question has exactly 4 options and one correct answer.
`)
	if config.WithFinal {
		b.WriteString("Also produce a final practical assignment that applies the whole course.\n")
	}

	b.WriteString(`
JSON schema:
{"title": "string", "description": "one sentence", "parts": [{"title": "string", "content": "string", "quiz": [{"prompt": "string", "options": ["string","string","string","string"], "correct_index": int, "explanation": "string"}]}], "final_assignment": {"title": "string", "description": "string", "task_prompt": "string"} | null}
`)

	b.WriteString("\n---NOTES START---\n")
	for i, n := range notes {
		b.WriteString(fmt.Sprintf("## Note %d: %s\n%s\n\n", i+1, n.Title, n.Body))
	}
	b.WriteString("---NOTES END---\n")

	return b.String()
}

// validateCourseParts discards unusable parts and questions from the
// model output instead of failing the whole course.
func validateCourseParts(parts []models.Part) []models.Part {
	var valid []models.Part
	for _, p := range parts {
		if p.Title == "" || p.Content == "" {
			continue
		}

		var quiz []models.Question
		for _, q := range p.Quiz {
			if q.Prompt == "" || len(q.Options) < 2 {
				continue
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				q.CorrectIndex = 0
			}
			quiz = append(quiz, q)
		}
		p.Quiz = quiz

		valid = append(valid, p)
	}
	return valid
}

package course

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"refyn-backend/internal/models"
)

// Per-part quiz states within a viewing session.
const (
	StateUnanswered = "unanswered"
	StateAnswerable = "answerable"
	StateRevealed   = "revealed"
)

var (
	ErrCourseNotReady  = errors.New("course is not ready for viewing")
	ErrAlreadyRevealed = errors.New("quiz already submitted for this part")
	ErrInvalidOption   = errors.New("selected option out of range")
)

// Session is one viewing session over a ready course: the part navigator,
// the working answer selections, and the per-part results. Answers are held
// only here and are discarded when the session closes; nothing is persisted.
// A session belongs to a single viewer, but handlers may touch it from
// concurrent requests, so all access goes through the mutex.
type Session struct {
	mu sync.Mutex

	courseID uuid.UUID
	status   string
	parts    []models.Part
	final    *models.FinalAssignment

	nav      *Navigator
	answers  map[int]map[int]int // part index -> question index -> option index
	results  map[int]Result
	lastUsed time.Time
}

func NewSession(c *models.Course) *Session {
	parts := c.Parts()
	return &Session{
		courseID: c.ID,
		status:   c.Status,
		parts:    parts,
		final:    c.Assignment(),
		nav:      NewNavigator(len(parts)),
		answers:  make(map[int]map[int]int),
		results:  make(map[int]Result),
		lastUsed: time.Now(),
	}
}

func (s *Session) touch() { s.lastUsed = time.Now() }

func (s *Session) ready() bool { return s.status == models.CourseReady }

// Advance moves to the next part, clamped at the end.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return ErrCourseNotReady
	}
	s.touch()
	s.nav.Advance()
	return nil
}

// Retreat moves to the previous part, clamped at 0.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return ErrCourseNotReady
	}
	s.touch()
	s.nav.Retreat()
	return nil
}

func (s *Session) JumpTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return ErrCourseNotReady
	}
	s.touch()
	return s.nav.JumpTo(i)
}

// SelectAnswer records the chosen option for one question. Selections on a
// revealed part are locked; there is no way back to unanswered within a
// session.
func (s *Session) SelectAnswer(partIdx, questionIdx, optionIdx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return ErrCourseNotReady
	}
	if partIdx < 0 || partIdx >= len(s.parts) {
		return ErrInvalidIndex
	}
	quiz := s.parts[partIdx].Quiz
	if questionIdx < 0 || questionIdx >= len(quiz) {
		return ErrInvalidIndex
	}
	if optionIdx < 0 || optionIdx >= len(quiz[questionIdx].Options) {
		return ErrInvalidOption
	}
	if r, ok := s.results[partIdx]; ok && r.Revealed {
		return ErrAlreadyRevealed
	}

	s.touch()
	if s.answers[partIdx] == nil {
		s.answers[partIdx] = make(map[int]int)
	}
	s.answers[partIdx][questionIdx] = optionIdx
	return nil
}

// Submit grades one part's quiz and locks the result. Submitting an already
// revealed part returns the recorded result unchanged (idempotent). Submit
// requires every question answered; zero-question parts are not gradable.
func (s *Session) Submit(partIdx int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return Result{}, ErrCourseNotReady
	}
	if partIdx < 0 || partIdx >= len(s.parts) {
		return Result{}, ErrInvalidIndex
	}

	if r, ok := s.results[partIdx]; ok && r.Revealed {
		return r, nil
	}

	quiz := s.parts[partIdx].Quiz
	if len(quiz) == 0 {
		return Result{}, ErrNoQuestions
	}
	if len(s.answers[partIdx]) < len(quiz) {
		return Result{}, ErrIncompleteQuiz
	}

	s.touch()
	result, err := Grade(quiz, s.answers[partIdx])
	if err != nil {
		return Result{}, err
	}
	s.results[partIdx] = result
	return result, nil
}

func (s *Session) partState(i int) string {
	if r, ok := s.results[i]; ok && r.Revealed {
		return StateRevealed
	}
	quiz := s.parts[i].Quiz
	if len(quiz) > 0 && len(s.answers[i]) == len(quiz) {
		return StateAnswerable
	}
	return StateUnanswered
}

package course

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"refyn-backend/internal/models"
)

// testCourse builds a ready 3-part course where part i has i+1 two-option
// questions with correct index 0 throughout.
func testCourse(t *testing.T, status string) *models.Course {
	t.Helper()

	parts := []models.Part{}
	for p := 0; p < 3; p++ {
		part := models.Part{Title: "Part", Content: "content"}
		for q := 0; q <= p; q++ {
			part.Quiz = append(part.Quiz, models.Question{
				Prompt:       "Q",
				Options:      []string{"right", "wrong"},
				CorrectIndex: 0,
			})
		}
		parts = append(parts, part)
	}

	partsJSON, err := json.Marshal(parts)
	require.NoError(t, err)

	assignmentJSON, err := json.Marshal(models.FinalAssignment{
		Title:       "Final piece",
		Description: "Apply what you practiced",
		TaskPrompt:  "Create a new work using the techniques above",
	})
	require.NoError(t, err)

	return &models.Course{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Status:         status,
		Title:          "Test course",
		PartsJSON:      partsJSON,
		AssignmentJSON: assignmentJSON,
		PartCount:      len(parts),
	}
}

func answerAll(t *testing.T, s *Session, part, correctCount int) {
	t.Helper()
	total := part + 1
	for q := 0; q < total; q++ {
		option := 1
		if q < correctCount {
			option = 0
		}
		require.NoError(t, s.SelectAnswer(part, q, option))
	}
}

func TestSession_PartStateTransitions(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseReady))

	st := s.Snapshot()
	require.Equal(t, StateUnanswered, st.ActivePart.State)

	// Partially answered part 1 (2 questions) stays unanswered.
	require.NoError(t, s.SelectAnswer(1, 0, 0))
	require.Equal(t, StateUnanswered, s.Snapshot().Parts[1].State)

	// All questions answered -> answerable.
	require.NoError(t, s.SelectAnswer(1, 1, 0))
	require.Equal(t, StateAnswerable, s.Snapshot().Parts[1].State)

	// Submit -> revealed, inputs locked.
	r, err := s.Submit(1)
	require.NoError(t, err)
	require.Equal(t, 100, r.Score)
	require.Equal(t, StateRevealed, s.Snapshot().Parts[1].State)
	require.ErrorIs(t, s.SelectAnswer(1, 0, 1), ErrAlreadyRevealed)
}

func TestSession_SubmitRequiresAllAnswers(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseReady))

	// Part 2 has three questions; answer only two.
	require.NoError(t, s.SelectAnswer(2, 0, 0))
	require.NoError(t, s.SelectAnswer(2, 1, 0))

	_, err := s.Submit(2)
	require.ErrorIs(t, err, ErrIncompleteQuiz)
}

func TestSession_ResubmitIsIdempotent(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseReady))

	answerAll(t, s, 0, 1)
	first, err := s.Submit(0)
	require.NoError(t, err)
	require.Equal(t, 100, first.Score)

	again, err := s.Submit(0)
	require.NoError(t, err)
	require.Equal(t, first, again)
}

func TestSession_CompletionGateOrderIndependent(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseReady))

	// Scores by construction: part 0 -> 80-ish impossible with 1 question,
	// so target 100/100/67 via correct counts 1, 3, 1-of-2.
	answerAll(t, s, 0, 1) // 1/1 = 100
	_, err := s.Submit(0)
	require.NoError(t, err)
	require.False(t, s.Snapshot().AllComplete)

	answerAll(t, s, 2, 3) // 3/3 = 100
	_, err = s.Submit(2)
	require.NoError(t, err)
	require.False(t, s.Snapshot().AllComplete, "gate must stay closed with part 1 unsubmitted")

	answerAll(t, s, 1, 1) // 1/2 = 50
	_, err = s.Submit(1)
	require.NoError(t, err)

	st := s.Snapshot()
	require.True(t, st.AllComplete)
	// round((100+100+50)/3) = round(83.33) = 83
	require.Equal(t, 83, st.AggregateScore)
}

func TestSession_AssignmentVisibleOnlyOnLastPart(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseReady))

	for p := 0; p < 3; p++ {
		answerAll(t, s, p, p+1)
		_, err := s.Submit(p)
		require.NoError(t, err)
	}

	st := s.Snapshot()
	require.True(t, st.AllComplete)
	require.False(t, st.AssignmentVisible, "gate holds but viewer is not on the last part")
	require.Nil(t, st.Assignment)

	require.NoError(t, s.JumpTo(2))
	st = s.Snapshot()
	require.True(t, st.AssignmentVisible)
	require.NotNil(t, st.Assignment)
	require.Equal(t, "Final piece", st.Assignment.Title)
}

func TestSession_GeneratingCourseIsTerminal(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseGenerating))

	require.ErrorIs(t, s.Advance(), ErrCourseNotReady)
	require.ErrorIs(t, s.JumpTo(1), ErrCourseNotReady)
	require.ErrorIs(t, s.SelectAnswer(0, 0, 0), ErrCourseNotReady)
	_, err := s.Submit(0)
	require.ErrorIs(t, err, ErrCourseNotReady)

	st := s.Snapshot()
	require.Equal(t, models.CourseGenerating, st.Status)
	require.Nil(t, st.ActivePart, "no part data is exposed before the course is ready")
	require.Empty(t, st.Parts)
}

func TestSession_FailedCourseIsTerminal(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseFailed))
	require.ErrorIs(t, s.Retreat(), ErrCourseNotReady)
	require.Equal(t, models.CourseFailed, s.Snapshot().Status)
}

func TestSession_AnswersValidated(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseReady))

	require.ErrorIs(t, s.SelectAnswer(5, 0, 0), ErrInvalidIndex)
	require.ErrorIs(t, s.SelectAnswer(0, 3, 0), ErrInvalidIndex)
	require.ErrorIs(t, s.SelectAnswer(0, 0, 9), ErrInvalidOption)
}

func TestSession_CorrectIndexHiddenUntilRevealed(t *testing.T) {
	s := NewSession(testCourse(t, models.CourseReady))

	st := s.Snapshot()
	for _, q := range st.ActivePart.Questions {
		require.Nil(t, q.CorrectIndex)
	}

	answerAll(t, s, 0, 1)
	_, err := s.Submit(0)
	require.NoError(t, err)

	st = s.Snapshot()
	require.NotNil(t, st.ActivePart.Questions[0].CorrectIndex)
	require.Equal(t, 0, *st.ActivePart.Questions[0].CorrectIndex)
}

func TestSession_ZeroQuestionPart(t *testing.T) {
	parts := []models.Part{
		{Title: "Reading only", Content: "no quiz"},
		{Title: "Quizzed", Content: "c", Quiz: []models.Question{
			{Prompt: "Q", Options: []string{"right", "wrong"}, CorrectIndex: 0},
		}},
	}
	partsJSON, err := json.Marshal(parts)
	require.NoError(t, err)

	c := &models.Course{ID: uuid.New(), Status: models.CourseReady, PartsJSON: partsJSON, PartCount: 2}
	s := NewSession(c)

	// Zero-question parts cannot be submitted...
	_, err = s.Submit(0)
	require.ErrorIs(t, err, ErrNoQuestions)

	// ...and do not block the completion gate.
	require.NoError(t, s.SelectAnswer(1, 0, 0))
	_, err = s.Submit(1)
	require.NoError(t, err)

	st := s.Snapshot()
	require.True(t, st.AllComplete)
	require.Equal(t, 100, st.AggregateScore, "aggregate averages only gradable parts")
}

func TestSessionStore_OpenResetsAndCloseDiscards(t *testing.T) {
	store := NewSessionStore()
	c := testCourse(t, models.CourseReady)
	userID := uuid.New()

	s := store.Open(userID, c)
	answerAll(t, s, 0, 1)
	_, err := s.Submit(0)
	require.NoError(t, err)

	got, ok := store.Get(userID, c.ID)
	require.True(t, ok)
	require.Equal(t, StateRevealed, got.Snapshot().Parts[0].State)

	// Re-open resets the working state.
	s2 := store.Open(userID, c)
	require.Equal(t, StateUnanswered, s2.Snapshot().Parts[0].State)

	store.Close(userID, c.ID)
	_, ok = store.Get(userID, c.ID)
	require.False(t, ok)
}

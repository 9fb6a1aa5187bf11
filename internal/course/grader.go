package course

import (
	"errors"
	"math"

	"refyn-backend/internal/models"
)

var (
	ErrNoQuestions    = errors.New("part has no questions to grade")
	ErrIncompleteQuiz = errors.New("every question must be answered before submitting")
)

// Result is the scored, locked outcome of one part's quiz.
type Result struct {
	Score    int  `json:"score"`
	Correct  int  `json:"correct"`
	Total    int  `json:"total"`
	Revealed bool `json:"revealed"`
}

// Grade scores one part's quiz. answers maps question index to the chosen
// option index; a missing entry counts as wrong. Score is round(100 *
// correct/total) with 0.5 rounding up. Pure function, no side effects.
func Grade(questions []models.Question, answers map[int]int) (Result, error) {
	if len(questions) == 0 {
		return Result{}, ErrNoQuestions
	}

	correct := 0
	for i, q := range questions {
		if chosen, ok := answers[i]; ok && chosen == q.CorrectIndex {
			correct++
		}
	}

	score := int(math.Round(float64(correct) * 100 / float64(len(questions))))

	return Result{
		Score:    score,
		Correct:  correct,
		Total:    len(questions),
		Revealed: true,
	}, nil
}

// AggregateScore is the rounded arithmetic mean of the revealed per-part
// scores. The mean of an empty set is 0.
func AggregateScore(results map[int]Result) int {
	if len(results) == 0 {
		return 0
	}

	sum := 0
	for _, r := range results {
		sum += r.Score
	}
	return int(math.Round(float64(sum) / float64(len(results))))
}

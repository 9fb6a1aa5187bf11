package course

import "refyn-backend/internal/models"

// AllQuizzesComplete reports whether every gradable part has a revealed
// result. Parts with no questions cannot be submitted and are treated as
// satisfied. Completion order is irrelevant. A course with zero parts never
// completes.
func AllQuizzesComplete(parts []models.Part, results map[int]Result) bool {
	if len(parts) == 0 {
		return false
	}
	for i, p := range parts {
		if len(p.Quiz) == 0 {
			continue
		}
		if r, ok := results[i]; !ok || !r.Revealed {
			return false
		}
	}
	return true
}

// AssignmentVisible is the completion gate for the final assignment: all
// quizzes complete AND the learner positioned on the last part. The
// position requirement is display-only; the aggregate score is computable
// regardless.
func AssignmentVisible(parts []models.Part, results map[int]Result, currentIndex int) bool {
	return AllQuizzesComplete(parts, results) && currentIndex == len(parts)-1
}

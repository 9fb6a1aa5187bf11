package course

import (
	"github.com/google/uuid"

	"refyn-backend/internal/models"
)

// QuestionView is a question as shown to the learner. The correct option
// and explanation are withheld until the part is revealed.
type QuestionView struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

type PartSummary struct {
	Index  int     `json:"index"`
	Title  string  `json:"title"`
	State  string  `json:"state"`
	Result *Result `json:"result,omitempty"`
}

type PartView struct {
	Index     int            `json:"index"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	ImageRef  string         `json:"image_ref,omitempty"`
	State     string         `json:"state"`
	Questions []QuestionView `json:"questions"`
	Answers   map[int]int    `json:"answers"`
	Result    *Result        `json:"result,omitempty"`
}

// State is the derived viewer state returned to the enclosing page: the
// active part, per-part progress, and the completion gate outputs.
type State struct {
	CourseID          uuid.UUID               `json:"course_id"`
	Status            string                  `json:"status"`
	CurrentIndex      int                     `json:"current_index"`
	PartCount         int                     `json:"part_count"`
	Parts             []PartSummary           `json:"parts,omitempty"`
	ActivePart        *PartView               `json:"active_part,omitempty"`
	AllComplete       bool                    `json:"all_complete"`
	AggregateScore    int                     `json:"aggregate_score"`
	AssignmentVisible bool                    `json:"assignment_visible"`
	Assignment        *models.FinalAssignment `json:"assignment,omitempty"`
}

// Snapshot derives the full viewer state. Generating and failed courses
// yield a terminal placeholder with no part data. The derivation re-scans
// the small per-session maps every call; inputs are immutable per session
// so no caching is needed.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		CourseID:  s.courseID,
		Status:    s.status,
		PartCount: len(s.parts),
	}
	if !s.ready() {
		return st
	}

	st.CurrentIndex = s.nav.Index()
	st.AllComplete = AllQuizzesComplete(s.parts, s.results)
	st.AggregateScore = AggregateScore(s.results)
	st.AssignmentVisible = AssignmentVisible(s.parts, s.results, s.nav.Index())

	for i := range s.parts {
		ps := PartSummary{Index: i, Title: s.parts[i].Title, State: s.partState(i)}
		if r, ok := s.results[i]; ok {
			res := r
			ps.Result = &res
		}
		st.Parts = append(st.Parts, ps)
	}

	if len(s.parts) > 0 {
		st.ActivePart = s.partView(s.nav.Index())
	}
	if st.AssignmentVisible && s.final != nil {
		st.Assignment = s.final
	}
	return st
}

func (s *Session) partView(i int) *PartView {
	p := s.parts[i]
	state := s.partState(i)
	revealed := state == StateRevealed

	pv := &PartView{
		Index:    i,
		Title:    p.Title,
		Content:  p.Content,
		ImageRef: p.ImageRef,
		State:    state,
		Answers:  make(map[int]int, len(s.answers[i])),
	}
	for qi, oi := range s.answers[i] {
		pv.Answers[qi] = oi
	}

	for _, q := range p.Quiz {
		qv := QuestionView{Prompt: q.Prompt, Options: q.Options}
		if revealed {
			ci := q.CorrectIndex
			qv.CorrectIndex = &ci
			qv.Explanation = q.Explanation
		}
		pv.Questions = append(pv.Questions, qv)
	}

	if r, ok := s.results[i]; ok {
		res := r
		pv.Result = &res
	}
	return pv
}

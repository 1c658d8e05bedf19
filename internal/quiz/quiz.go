package quiz

import (
	"errors"
	"strings"

	"github.com/pavelanni/trainer/internal/model"
)

// Phase is the observable state of a quiz session.
type Phase string

const (
	PhaseNotStarted      Phase = "not_started"
	PhaseAwaitingAnswer  Phase = "awaiting_answer"
	PhaseShowingFeedback Phase = "showing_feedback"
	PhaseComplete        Phase = "complete"
)

var (
	// ErrNoQuestions means Start was called with an empty item set.
	ErrNoQuestions = errors.New("no questions to start with")
	// ErrNotAwaitingAnswer means an answer was selected outside the
	// awaiting-answer phase.
	ErrNotAwaitingAnswer = errors.New("quiz is not awaiting an answer")
	// ErrInvalidOption means the selected option is not one of the current
	// question's options.
	ErrInvalidOption = errors.New("option is not part of the current question")
	// ErrNoFeedback means Advance was called before the current question
	// was answered.
	ErrNoFeedback = errors.New("current question has not been answered")
	// ErrComplete means the quiz has already completed.
	ErrComplete = errors.New("quiz is complete")
)

// Session tracks one user's run through a generated question set. It holds
// no I/O; every user action maps to one transition method, so the machine
// is testable without any HTTP or rendering layer.
//
// Invariant: len(Answers) == len(Scores) == number of answered questions.
// Both grow by appending only, once per question.
type Session struct {
	Items   []model.QuizItem
	Current int
	Answers []string
	Scores  []int // 1 for correct, 0 for incorrect

	FeedbackShown bool
	LastCorrect   bool
	Complete      bool
	Passed        bool

	passingScore  int
	progressSaved bool
}

// NewSession creates an empty (not started) quiz session with the given
// passing score.
func NewSession(passingScore int) *Session {
	return &Session{passingScore: passingScore}
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	switch {
	case s.Complete:
		return PhaseComplete
	case len(s.Items) == 0:
		return PhaseNotStarted
	case s.FeedbackShown:
		return PhaseShowingFeedback
	default:
		return PhaseAwaitingAnswer
	}
}

// Start begins a quiz over a freshly generated item set, clearing any
// previous run. The progress-saved guard is deliberately left alone: a retry
// after a failed attempt must not produce a second progress row.
func (s *Session) Start(items []model.QuizItem) error {
	if len(items) == 0 {
		return ErrNoQuestions
	}
	s.Items = items
	s.Current = 0
	s.Answers = nil
	s.Scores = nil
	s.FeedbackShown = false
	s.LastCorrect = false
	s.Complete = false
	s.Passed = false
	return nil
}

// CurrentItem returns the question awaiting an answer or showing feedback.
func (s *Session) CurrentItem() (model.QuizItem, bool) {
	if len(s.Items) == 0 || s.Current >= len(s.Items) {
		return model.QuizItem{}, false
	}
	return s.Items[s.Current], true
}

// SelectAnswer records the user's choice for the current question, scores
// it, and moves to feedback. Answering the last question completes the quiz
// immediately; the pass threshold is inclusive.
func (s *Session) SelectAnswer(option string) error {
	if s.Phase() != PhaseAwaitingAnswer {
		return ErrNotAwaitingAnswer
	}
	item := s.Items[s.Current]
	valid := false
	for _, o := range item.Options {
		if o == option {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidOption
	}

	correct := EvaluateAnswer(option, item.Answer)
	s.Answers = append(s.Answers, option)
	if correct {
		s.Scores = append(s.Scores, 1)
	} else {
		s.Scores = append(s.Scores, 0)
	}
	s.LastCorrect = correct
	s.FeedbackShown = true

	if s.Current == len(s.Items)-1 {
		s.Complete = true
		s.Passed = s.Total() >= s.passingScore
	}
	return nil
}

// Advance moves from feedback to the next question.
func (s *Session) Advance() error {
	if s.Complete {
		return ErrComplete
	}
	if s.Phase() != PhaseShowingFeedback {
		return ErrNoFeedback
	}
	s.Current++
	s.FeedbackShown = false
	s.LastCorrect = false
	return nil
}

// Total is the number of correctly answered questions so far.
func (s *Session) Total() int {
	total := 0
	for _, sc := range s.Scores {
		total += sc
	}
	return total
}

// Missed lists the questions answered incorrectly, for the completion
// review. Index is 0-based.
type Missed struct {
	Index  int
	Item   model.QuizItem
	Answer string
}

// MissedQuestions returns the incorrectly answered questions in order.
func (s *Session) MissedQuestions() []Missed {
	var missed []Missed
	for i, sc := range s.Scores {
		if sc == 0 {
			missed = append(missed, Missed{Index: i, Item: s.Items[i], Answer: s.Answers[i]})
		}
	}
	return missed
}

// ProgressSaved reports whether this session's completion has already been
// recorded in the progress log.
func (s *Session) ProgressSaved() bool { return s.progressSaved }

// MarkProgressSaved flips the one-shot guard after a successful progress
// write so re-renders and retries never double-write.
func (s *Session) MarkProgressSaved() { s.progressSaved = true }

// Reset clears all quiz state including the progress-saved guard. Used when
// the user moves on to the next module or switches modules.
func (s *Session) Reset() {
	s.Items = nil
	s.Current = 0
	s.Answers = nil
	s.Scores = nil
	s.FeedbackShown = false
	s.LastCorrect = false
	s.Complete = false
	s.Passed = false
	s.progressSaved = false
}

// EvaluateAnswer reports whether the user's answer matches the correct one,
// ignoring case and surrounding whitespace.
func EvaluateAnswer(user, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(user), strings.TrimSpace(correct))
}

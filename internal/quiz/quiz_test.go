package quiz

import (
	"fmt"
	"testing"

	"github.com/pavelanni/trainer/internal/model"
)

func makeItems(t *testing.T, n int) []model.QuizItem {
	t.Helper()
	items := make([]model.QuizItem, n)
	for i := range items {
		items[i] = model.QuizItem{
			Question: fmt.Sprintf("Question %d?", i+1),
			Type:     model.TrueFalse,
			Options:  []string{"True", "False"},
			Answer:   "True",
		}
	}
	return items
}

func TestEvaluateAnswer(t *testing.T) {
	tests := []struct {
		user    string
		correct string
		want    bool
	}{
		{" True ", "true", true},
		{"C. Paris", "c. paris", true},
		{"B. Madrid", "C. Paris", false},
		{"true", "True", true},
		{"", "", true},
		{"False", "True", false},
	}
	for _, tt := range tests {
		t.Run(tt.user+"/"+tt.correct, func(t *testing.T) {
			if got := EvaluateAnswer(tt.user, tt.correct); got != tt.want {
				t.Errorf("EvaluateAnswer(%q, %q) = %v, want %v", tt.user, tt.correct, got, tt.want)
			}
		})
	}
}

func TestFullRunVisitsAllQuestionsInOrder(t *testing.T) {
	const n = 10
	s := NewSession(7)
	if s.Phase() != PhaseNotStarted {
		t.Fatalf("expected not_started, got %q", s.Phase())
	}

	if err := s.Start(makeItems(t, n)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < n; i++ {
		if s.Current != i {
			t.Fatalf("expected current index %d, got %d", i, s.Current)
		}
		if s.Phase() != PhaseAwaitingAnswer {
			t.Fatalf("question %d: expected awaiting_answer, got %q", i, s.Phase())
		}
		item, ok := s.CurrentItem()
		if !ok {
			t.Fatalf("question %d: no current item", i)
		}
		if item.Question != fmt.Sprintf("Question %d?", i+1) {
			t.Fatalf("question %d visited out of order: %q", i, item.Question)
		}
		if err := s.SelectAnswer("True"); err != nil {
			t.Fatalf("SelectAnswer %d: %v", i, err)
		}
		if i < n-1 {
			if s.Phase() != PhaseShowingFeedback {
				t.Fatalf("question %d: expected showing_feedback, got %q", i, s.Phase())
			}
			if err := s.Advance(); err != nil {
				t.Fatalf("Advance %d: %v", i, err)
			}
		}
	}

	if s.Phase() != PhaseComplete {
		t.Fatalf("expected complete, got %q", s.Phase())
	}
	if len(s.Answers) != n || len(s.Scores) != n {
		t.Errorf("expected %d answers and scores, got %d and %d", n, len(s.Answers), len(s.Scores))
	}
	if !s.Passed {
		t.Error("all correct should pass")
	}
	if s.Total() != n {
		t.Errorf("expected total %d, got %d", n, s.Total())
	}
}

func TestPassBoundaryInclusive(t *testing.T) {
	// scores [1,1,1,1,1,1,1,0,0,0] with passing score 7: exactly 7 passes.
	s := NewSession(7)
	if err := s.Start(makeItems(t, 10)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 10; i++ {
		answer := "True"
		if i >= 7 {
			answer = "False"
		}
		if err := s.SelectAnswer(answer); err != nil {
			t.Fatalf("SelectAnswer %d: %v", i, err)
		}
		if i < 9 {
			if err := s.Advance(); err != nil {
				t.Fatalf("Advance %d: %v", i, err)
			}
		}
	}
	if s.Total() != 7 {
		t.Fatalf("expected total 7, got %d", s.Total())
	}
	if !s.Passed {
		t.Error("total equal to passing score should pass")
	}
}

func TestFailBelowBoundary(t *testing.T) {
	s := NewSession(2)
	if err := s.Start(makeItems(t, 2)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.SelectAnswer("True"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.SelectAnswer("False"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if s.Passed {
		t.Error("1 of 2 with passing score 2 should fail")
	}
	if !s.Complete {
		t.Error("expected quiz complete")
	}
	if !s.FeedbackShown || s.LastCorrect {
		t.Error("completion should keep the last feedback visible and incorrect")
	}
}

func TestSelectAnswerValidation(t *testing.T) {
	s := NewSession(1)

	// Not started yet.
	if err := s.SelectAnswer("True"); err != ErrNotAwaitingAnswer {
		t.Errorf("expected ErrNotAwaitingAnswer, got %v", err)
	}

	if err := s.Start(makeItems(t, 2)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Option must belong to the current question.
	if err := s.SelectAnswer("Maybe"); err != ErrInvalidOption {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}

	// Double answer on the same question.
	if err := s.SelectAnswer("True"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := s.SelectAnswer("True"); err != ErrNotAwaitingAnswer {
		t.Errorf("expected ErrNotAwaitingAnswer on double answer, got %v", err)
	}
	if len(s.Answers) != 1 || len(s.Scores) != 1 {
		t.Errorf("answers/scores must grow once per question, got %d/%d", len(s.Answers), len(s.Scores))
	}
}

func TestAdvanceValidation(t *testing.T) {
	s := NewSession(1)
	if err := s.Start(makeItems(t, 1)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// No answer yet.
	if err := s.Advance(); err != ErrNoFeedback {
		t.Errorf("expected ErrNoFeedback, got %v", err)
	}

	if err := s.SelectAnswer("True"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	// Single question: answering completes the quiz.
	if err := s.Advance(); err != ErrComplete {
		t.Errorf("expected ErrComplete, got %v", err)
	}
}

func TestStartEmpty(t *testing.T) {
	s := NewSession(1)
	if err := s.Start(nil); err != ErrNoQuestions {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}
	if s.Phase() != PhaseNotStarted {
		t.Errorf("failed start should leave the session not started")
	}
}

func TestRetryResetsRunButKeepsProgressGuard(t *testing.T) {
	s := NewSession(2)
	if err := s.Start(makeItems(t, 2)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.SelectAnswer("False"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.SelectAnswer("False"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if s.Passed {
		t.Fatal("expected failed quiz")
	}
	s.MarkProgressSaved()

	// Retry: fresh items, counters reset, guard untouched.
	if err := s.Start(makeItems(t, 2)); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	if s.Current != 0 || len(s.Answers) != 0 || len(s.Scores) != 0 {
		t.Error("retry should reset index, answers, and scores")
	}
	if s.Complete || s.Passed || s.FeedbackShown {
		t.Error("retry should clear completion and feedback flags")
	}
	if !s.ProgressSaved() {
		t.Error("retry must not reset the progress-saved guard")
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := NewSession(1)
	if err := s.Start(makeItems(t, 1)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.SelectAnswer("True"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	s.MarkProgressSaved()

	s.Reset()
	if s.Phase() != PhaseNotStarted {
		t.Errorf("expected not_started after reset, got %q", s.Phase())
	}
	if s.ProgressSaved() {
		t.Error("reset should clear the progress-saved guard")
	}
}

func TestMissedQuestions(t *testing.T) {
	s := NewSession(3)
	if err := s.Start(makeItems(t, 3)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	answers := []string{"True", "False", "True"}
	for i, a := range answers {
		if err := s.SelectAnswer(a); err != nil {
			t.Fatalf("SelectAnswer %d: %v", i, err)
		}
		if i < len(answers)-1 {
			if err := s.Advance(); err != nil {
				t.Fatalf("Advance %d: %v", i, err)
			}
		}
	}

	missed := s.MissedQuestions()
	if len(missed) != 1 {
		t.Fatalf("expected 1 missed question, got %d", len(missed))
	}
	if missed[0].Index != 1 {
		t.Errorf("expected missed index 1, got %d", missed[0].Index)
	}
	if missed[0].Answer != "False" {
		t.Errorf("expected recorded answer 'False', got %q", missed[0].Answer)
	}
	if missed[0].Item.Answer != "True" {
		t.Errorf("expected correct answer 'True', got %q", missed[0].Item.Answer)
	}
}

func TestCaseInsensitiveScoring(t *testing.T) {
	s := NewSession(1)
	items := []model.QuizItem{{
		Question: "Capital of France?",
		Type:     model.MultipleChoice,
		Options:  []string{"A. Berlin", "B. Madrid", "C. Paris", "D. Rome"},
		Answer:   "c. paris", // model output may differ in case from the option
	}}
	if err := s.Start(items); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.SelectAnswer("C. Paris"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if !s.LastCorrect {
		t.Error("case difference between option and answer should still score correct")
	}
}

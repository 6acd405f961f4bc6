package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/talentgate/assess-backend/internal/model"
)

func makeQuestions(n int) []model.Question {
	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, model.Question{
			ID:            uuid.New(),
			Prompt:        "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i % 4,
		})
	}
	return questions
}

func TestScoreCountsCorrectAnswers(t *testing.T) {
	questions := makeQuestions(15)

	// Answer the first 9 correctly, the next 3 incorrectly, leave 3 blank.
	answers := make(map[uuid.UUID]int)
	for i := 0; i < 9; i++ {
		answers[questions[i].ID] = questions[i].CorrectOption
	}
	for i := 9; i < 12; i++ {
		answers[questions[i].ID] = (questions[i].CorrectOption + 1) % 4
	}

	result := Score(questions, answers, 60, 480, model.ProctoringState{TabSwitches: 1})

	if result.Score != 9 {
		t.Errorf("Score = %d, want 9", result.Score)
	}
	if result.TotalQuestions != 15 {
		t.Errorf("TotalQuestions = %d, want 15", result.TotalQuestions)
	}
	if result.Percentage != 60.00 {
		t.Errorf("Percentage = %v, want 60.00", result.Percentage)
	}
	if !result.Passed {
		t.Error("Passed = false, want true (60% meets the 60% threshold)")
	}
	if result.ElapsedSeconds != 480 {
		t.Errorf("ElapsedSeconds = %d, want 480", result.ElapsedSeconds)
	}
	if result.TabSwitches != 1 {
		t.Errorf("TabSwitches = %d, want 1", result.TabSwitches)
	}
}

func TestScorePerfect(t *testing.T) {
	questions := makeQuestions(10)
	answers := make(map[uuid.UUID]int)
	for _, q := range questions {
		answers[q.ID] = q.CorrectOption
	}

	result := Score(questions, answers, 60, 100, model.ProctoringState{})

	if result.Score != 10 || result.Percentage != 100.00 || !result.Passed {
		t.Errorf("got score=%d percentage=%v passed=%t, want 10/100.00/true",
			result.Score, result.Percentage, result.Passed)
	}
}

func TestScoreNoAnswers(t *testing.T) {
	questions := makeQuestions(10)

	result := Score(questions, nil, 60, 900, model.ProctoringState{})

	if result.Score != 0 {
		t.Errorf("Score = %d, want 0", result.Score)
	}
	if result.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0", result.Percentage)
	}
	if result.Passed {
		t.Error("Passed = true, want false")
	}
}

func TestScoreEmptyQuestionSetNeverPasses(t *testing.T) {
	result := Score(nil, nil, 60, 0, model.ProctoringState{})

	if result.Passed {
		t.Error("empty question set must not pass")
	}
	if result.TotalQuestions != 0 || result.Percentage != 0 {
		t.Errorf("got total=%d percentage=%v, want 0/0", result.TotalQuestions, result.Percentage)
	}
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	questions := makeQuestions(3)
	answers := map[uuid.UUID]int{
		questions[0].ID: questions[0].CorrectOption,
	}

	result := Score(questions, answers, 60, 0, model.ProctoringState{})

	// 1/3 = 33.333... rounds to 33.33
	if result.Percentage != 33.33 {
		t.Errorf("Percentage = %v, want 33.33", result.Percentage)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	questions := makeQuestions(7)
	answers := map[uuid.UUID]int{
		questions[0].ID: questions[0].CorrectOption,
		questions[3].ID: questions[3].CorrectOption,
	}
	proctoring := model.ProctoringState{TabSwitches: 2, CopyAttempts: 1}

	first := Score(questions, answers, 60, 300, proctoring)
	for i := 0; i < 5; i++ {
		if got := Score(questions, answers, 60, 300, proctoring); got != first {
			t.Fatalf("run %d differs: got %+v, want %+v", i, got, first)
		}
	}
}

func TestScoreCarriesProctoringState(t *testing.T) {
	questions := makeQuestions(4)
	proctoring := model.ProctoringState{TabSwitches: 3, CopyAttempts: 2, Disqualified: true}

	result := Score(questions, nil, 60, 120, proctoring)

	if result.TabSwitches != 3 || result.CopyAttempts != 2 || !result.Disqualified {
		t.Errorf("proctoring not carried: %+v", result)
	}
}

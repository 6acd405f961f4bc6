package session

import (
	"math"

	"github.com/google/uuid"
	"github.com/talentgate/assess-backend/internal/model"
)

// Score grades the session. Pure and deterministic: identical inputs always
// yield identical results, so it is unit testable without the rest of the
// session. Unanswered questions count as incorrect.
func Score(
	questions []model.Question,
	answers map[uuid.UUID]int,
	passThreshold float64,
	elapsedSeconds int,
	proctoring model.ProctoringState,
) model.SessionResult {
	correct := 0
	for _, q := range questions {
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectOption {
			correct++
		}
	}

	total := len(questions)
	var percentage float64
	if total > 0 {
		percentage = roundTwo(float64(correct) / float64(total) * 100)
	}

	return model.SessionResult{
		Score:          correct,
		TotalQuestions: total,
		Percentage:     percentage,
		Passed:         total > 0 && percentage >= passThreshold,
		ElapsedSeconds: elapsedSeconds,
		TabSwitches:    proctoring.TabSwitches,
		CopyAttempts:   proctoring.CopyAttempts,
		Disqualified:   proctoring.Disqualified,
	}
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}

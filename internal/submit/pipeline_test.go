package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// fakeRecorder captures the locally recorded results.
type fakeRecorder struct {
	records []ResultRecord
}

func (f *fakeRecorder) Record(_ context.Context, rec ResultRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func testSubmission() model.Submission {
	q1 := model.Question{
		ID:            uuid.New(),
		Prompt:        "first",
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: 1,
	}
	q2 := model.Question{
		ID:            uuid.New(),
		Prompt:        "second",
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: 2,
	}
	return model.Submission{
		SessionID:   uuid.New(),
		CandidateID: uuid.New(),
		Identity:    model.CandidateIdentity{Email: "jo@example.com", FullName: "Jo Candidate"},
		Questions:   []model.Question{q1, q2},
		Answers:     map[uuid.UUID]int{q1.ID: 1}, // q2 left unanswered
		Result: model.SessionResult{
			Score:          1,
			TotalQuestions: 2,
			Percentage:     50,
			Passed:         false,
			ElapsedSeconds: 120,
		},
	}
}

func TestSubmitAllRemotePhasesSucceed(t *testing.T) {
	var gotReview reviewPayload
	var gotResult resultPayload
	notified := false

	review := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReview)
	}))
	defer review.Close()

	result := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotResult)
		json.NewEncoder(w).Encode(resultResponse{Score: "1/2"})
	}))
	defer result.Close()

	notify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified = true
	}))
	defer notify.Close()

	recorder := &fakeRecorder{}
	p := NewPipeline(review.URL, result.URL, notify.URL, time.Second, recorder, zerolog.Nop())

	sub := testSubmission()
	outcome := p.Submit(context.Background(), sub)

	if !outcome.Remote {
		t.Error("Remote = false, want true")
	}
	if outcome.CanonicalScore != "1/2" {
		t.Errorf("CanonicalScore = %q, want 1/2", outcome.CanonicalScore)
	}
	if !notified {
		t.Error("notification endpoint never called")
	}

	if gotReview.Email != sub.Identity.Email || len(gotReview.Review) != 2 {
		t.Errorf("review payload = %+v", gotReview)
	}
	if gotResult.CorrectAnswer != 1 || gotResult.FullName != sub.Identity.FullName {
		t.Errorf("result payload = %+v", gotResult)
	}

	// Local record is written on the success path too.
	if len(recorder.records) != 1 {
		t.Fatalf("local records = %d, want 1", len(recorder.records))
	}
	if !recorder.records[0].SubmittedRemotely {
		t.Error("SubmittedRemotely = false, want true")
	}
}

func TestSubmitResultEndpointDownFallsBackLocally(t *testing.T) {
	reviewCalled := false
	review := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reviewCalled = true
	}))
	defer review.Close()

	result := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer result.Close()

	recorder := &fakeRecorder{}
	p := NewPipeline(review.URL, result.URL, "", time.Second, recorder, zerolog.Nop())

	sub := testSubmission()
	outcome := p.Submit(context.Background(), sub)

	if outcome.Remote {
		t.Error("Remote = true, want false when the result endpoint fails")
	}
	if outcome.CanonicalScore != "" {
		t.Errorf("CanonicalScore = %q, want empty", outcome.CanonicalScore)
	}
	if !reviewCalled {
		t.Error("review phase must still have been attempted")
	}

	if len(recorder.records) != 1 {
		t.Fatalf("local records = %d, want 1", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.SubmittedRemotely {
		t.Error("SubmittedRemotely = true, want false")
	}
	if rec.Score != 1 || rec.TotalQuestions != 2 {
		t.Errorf("record = %+v, local score must survive", rec)
	}
}

func TestSubmitReviewFailureDoesNotBlockResult(t *testing.T) {
	review := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer review.Close()

	result := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(resultResponse{Score: "1/2"})
	}))
	defer result.Close()

	p := NewPipeline(review.URL, result.URL, "", time.Second, &fakeRecorder{}, zerolog.Nop())

	outcome := p.Submit(context.Background(), testSubmission())
	if !outcome.Remote {
		t.Error("a failed review must not prevent the aggregate result submission")
	}
}

func TestSubmitUnconfiguredEndpointsStillRecordLocally(t *testing.T) {
	recorder := &fakeRecorder{}
	p := NewPipeline("", "", "", time.Second, recorder, zerolog.Nop())

	outcome := p.Submit(context.Background(), testSubmission())

	if outcome.Remote {
		t.Error("Remote = true with no endpoints configured")
	}
	if len(recorder.records) != 1 {
		t.Fatalf("local records = %d, want 1", len(recorder.records))
	}
}

func TestBuildReviewMarksUnanswered(t *testing.T) {
	sub := testSubmission()
	records := buildReview(sub.Questions, sub.Answers)

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	answered := records[0]
	if !answered.IsCorrect || answered.UserSelectedOptionIndex != 1 || answered.UserAnswer != "b" {
		t.Errorf("answered record = %+v", answered)
	}

	blank := records[1]
	if blank.IsCorrect || blank.UserSelectedOptionIndex != -1 || blank.UserAnswer != "" {
		t.Errorf("unanswered record = %+v, want empty answer and index -1", blank)
	}
}

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// fakeStore returns a fixed identity or error.
type fakeStore struct {
	identity *model.CandidateIdentity
	err      error
	calls    int
}

func (f *fakeStore) GetIdentity(_ context.Context, _ uuid.UUID) (*model.CandidateIdentity, error) {
	f.calls++
	return f.identity, f.err
}

var (
	sessionIdentity   = &model.CandidateIdentity{Email: "session@example.com", FullName: "Session Copy"}
	applicantIdentity = &model.CandidateIdentity{Email: "applicant@example.com", FullName: "Applicant Record"}
)

func TestResolveSessionStoreWins(t *testing.T) {
	session := &fakeStore{identity: sessionIdentity}
	applicants := &fakeStore{identity: applicantIdentity}
	r := NewResolver(session, applicants, zerolog.Nop())

	got, err := r.Resolve(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != *sessionIdentity {
		t.Errorf("got %+v, want the session store copy", got)
	}
	if applicants.calls != 0 {
		t.Error("applicant store must not be consulted on a session hit")
	}
}

func TestResolveFallsThroughToApplicants(t *testing.T) {
	session := &fakeStore{} // miss
	applicants := &fakeStore{identity: applicantIdentity}
	r := NewResolver(session, applicants, zerolog.Nop())

	got, err := r.Resolve(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != *applicantIdentity {
		t.Errorf("got %+v, want the applicant record", got)
	}
}

func TestResolveStoreErrorTreatedAsMiss(t *testing.T) {
	session := &fakeStore{err: errors.New("redis down")}
	applicants := &fakeStore{identity: applicantIdentity}
	r := NewResolver(session, applicants, zerolog.Nop())

	got, err := r.Resolve(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != *applicantIdentity {
		t.Errorf("got %+v, a degraded cache must not block resolution", got)
	}
}

func TestResolveIncompleteIdentitySkipped(t *testing.T) {
	session := &fakeStore{identity: &model.CandidateIdentity{Email: "only@example.com"}}
	applicants := &fakeStore{identity: applicantIdentity}
	r := NewResolver(session, applicants, zerolog.Nop())

	got, err := r.Resolve(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != *applicantIdentity {
		t.Errorf("got %+v, an incomplete record must not win", got)
	}
}

func TestResolveCurrentApplicantIsLastResort(t *testing.T) {
	r := NewResolver(&fakeStore{}, &fakeStore{}, zerolog.Nop())
	current := &model.CandidateIdentity{Email: "current@example.com", FullName: "Current Applicant"}
	r.SetCurrentApplicant(current)

	got, err := r.Resolve(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != *current {
		t.Errorf("got %+v, want the current applicant fallback", got)
	}
}

func TestResolveNothingFound(t *testing.T) {
	r := NewResolver(&fakeStore{}, &fakeStore{}, zerolog.Nop())

	_, err := r.Resolve(context.Background(), uuid.New())
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("err = %v, want ErrIdentityNotFound", err)
	}
}

func TestResolveNilStoresSkipped(t *testing.T) {
	r := NewResolver(nil, nil, zerolog.Nop())
	r.SetCurrentApplicant(applicantIdentity)

	got, err := r.Resolve(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != *applicantIdentity {
		t.Errorf("got %+v", got)
	}
}

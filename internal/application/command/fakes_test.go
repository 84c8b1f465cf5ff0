package command

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/review"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/logger"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// memoryModules stores snapshots and enforces versions like the postgres
// repository does.
type memoryModules struct {
	mu        sync.Mutex
	states    map[shared.ModuleID]module.State
	conflicts int
	saves     int
}

func newMemoryModules() *memoryModules {
	return &memoryModules{states: make(map[shared.ModuleID]module.State)}
}

func (r *memoryModules) GetByID(_ context.Context, id shared.ModuleID) (*module.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[id]
	if !ok {
		return nil, shared.ErrModuleNotFound
	}
	return module.Reconstitute(s), nil
}

func (r *memoryModules) Add(_ context.Context, m *module.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[m.ID()]; ok {
		return shared.NewDomainError("module", "Add", shared.ErrAlreadyExists, "module already exists")
	}
	m.SetVersion(1)
	r.states[m.ID()] = m.Snapshot()
	return nil
}

func (r *memoryModules) Save(_ context.Context, m *module.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.states[m.ID()]
	if !ok {
		return shared.ErrModuleNotFound
	}
	if r.conflicts > 0 {
		// Someone else wrote in between.
		r.conflicts--
		stored.Version++
		r.states[m.ID()] = stored
	}
	if stored.Version != m.Version() {
		return shared.ErrModuleConflict
	}
	m.SetVersion(m.Version() + 1)
	r.states[m.ID()] = m.Snapshot()
	r.saves++
	return nil
}

func (r *memoryModules) ListIDsWithExpiredIssues(context.Context, time.Time) ([]shared.ModuleID, error) {
	return nil, nil
}

// memoryReviews is the review counterpart of memoryModules.
type memoryReviews struct {
	mu     sync.Mutex
	states map[shared.ReviewID]review.State
}

func newMemoryReviews() *memoryReviews {
	return &memoryReviews{states: make(map[shared.ReviewID]review.State)}
}

func (r *memoryReviews) GetByID(_ context.Context, id shared.ReviewID) (*review.IssueReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[id]
	if !ok {
		return nil, shared.ErrReviewNotFound
	}
	return review.Reconstitute(s), nil
}

func (r *memoryReviews) GetByUserIssueID(_ context.Context, id shared.UserIssueID) (*review.IssueReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.states {
		if s.UserIssueID == id {
			return review.Reconstitute(s), nil
		}
	}
	return nil, shared.ErrReviewNotFound
}

func (r *memoryReviews) Add(_ context.Context, rv *review.IssueReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.states {
		if s.UserIssueID == rv.UserIssueID() {
			return shared.ErrReviewExists
		}
	}
	rv.SetVersion(1)
	r.states[rv.ID()] = rv.Snapshot()
	return nil
}

func (r *memoryReviews) Save(_ context.Context, rv *review.IssueReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.states[rv.ID()]
	if !ok {
		return shared.ErrReviewNotFound
	}
	if stored.Version != rv.Version() {
		return shared.ErrReviewConflict
	}
	rv.SetVersion(rv.Version() + 1)
	r.states[rv.ID()] = rv.Snapshot()
	return nil
}

type memoryUserIssues struct {
	mu      sync.Mutex
	records map[shared.UserIssueID]solving.UserIssue
}

func newMemoryUserIssues(records ...*solving.UserIssue) *memoryUserIssues {
	r := &memoryUserIssues{records: make(map[shared.UserIssueID]solving.UserIssue)}
	for _, u := range records {
		r.records[u.ID] = *u
	}
	return r
}

func (r *memoryUserIssues) Add(_ context.Context, u *solving.UserIssue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[u.ID] = *u
	return nil
}

func (r *memoryUserIssues) GetByID(_ context.Context, id shared.UserIssueID) (*solving.UserIssue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.records[id]
	if !ok {
		return nil, shared.ErrUserIssueNotFound
	}
	return &u, nil
}

func (r *memoryUserIssues) Save(_ context.Context, u *solving.UserIssue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[u.ID] = *u
	return nil
}

// recordingPublisher collects published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func newTestModuleWriter(repo module.Repository, pub shared.EventPublisher) *ModuleWriter {
	return NewModuleWriter(repo, pub, noop.NewTracerProvider().Tracer("test"), logger.Discard(), 3)
}

func newTestReviewWriter(repo review.Repository, pub shared.EventPublisher) *ReviewWriter {
	return NewReviewWriter(repo, pub, noop.NewTracerProvider().Tracer("test"), logger.Discard(), 3)
}

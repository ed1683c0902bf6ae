package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/internal/idgen"
	"github.com/viant/warden/service/approval"
	"github.com/viant/warden/service/dao"
	"github.com/viant/warden/service/dao/store"
	"github.com/viant/warden/service/messaging"
	qmem "github.com/viant/warden/service/messaging/memory"
)

type service struct {
	records dao.Service[string, approval.Approval]

	// serialises decisions so the terminality check and the write are one
	// atomic step
	mux sync.Mutex

	// fan-out queue
	events messaging.Queue[approval.Event]
}

// key selector – grab ID field
func approvalKey(a *approval.Approval) string { return a.ID }

// New creates an in-memory approval store. A production deployment should
// decide persistence explicitly; the Service interface makes the swap
// transparent to callers.
func New(options ...Option) approval.Service {
	ret := &service{
		records: store.NewMemoryStore[string, approval.Approval](approvalKey),
		events:  qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Create(ctx context.Context, request *approval.Request) (*approval.Approval, error) {
	if request == nil {
		return nil, errors.New("invalid request")
	}
	if request.ExecutionID == "" {
		return nil, fmt.Errorf("approval request requires execution id")
	}

	record := &approval.Approval{
		ID:             idgen.New(),
		ExecutionID:    request.ExecutionID,
		Status:         approval.StatusPending,
		Command:        request.Command,
		PayloadSummary: request.PayloadSummary,
		Scope:          request.Scope,
		RiskLevel:      request.RiskLevel,
		CreatedAt:      clock.Now(),
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: record.Clone()})
	return record.Clone(), nil
}

func (s *service) Get(ctx context.Context, id string) (*approval.Approval, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

func (s *service) Approve(ctx context.Context, id, approvedBy, note string) (*approval.Approval, error) {
	return s.decide(ctx, id, approval.StatusApproved, approvedBy, note)
}

func (s *service) Reject(ctx context.Context, id, rejectedBy, note string) (*approval.Approval, error) {
	return s.decide(ctx, id, approval.StatusRejected, rejectedBy, note)
}

func (s *service) IsFullyApproved(ctx context.Context, id string) (bool, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return record.Status == approval.StatusApproved, nil
}

func (s *service) ListPending(ctx context.Context) ([]*approval.Approval, error) {
	return s.List(ctx, approval.StatusPending)
}

func (s *service) List(ctx context.Context, status approval.Status) ([]*approval.Approval, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*approval.Approval, 0, len(all))
	for _, record := range all {
		if status != "" && record.Status != status {
			continue
		}
		out = append(out, record.Clone())
	}
	return out, nil
}

func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

// decide applies a terminal transition. A repeated decision with the same
// outcome is an idempotent no-op; a conflicting one fails and the original
// decision is preserved. The stored record is never mutated in place; the
// transition is applied to a clone which then replaces it.
func (s *service) decide(ctx context.Context, id string, status approval.Status, decidedBy, note string) (*approval.Approval, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.Status.IsTerminal() {
		if stored.Status == status {
			return stored.Clone(), nil
		}
		return nil, fmt.Errorf("%w: %s is already %s", approval.ErrConflict, id, stored.Status)
	}

	record := stored.Clone()
	now := clock.Now()
	record.Status = status
	record.DecidedAt = &now
	record.Note = note
	switch status {
	case approval.StatusApproved:
		record.ApprovedBy = decidedBy
	case approval.StatusRejected:
		record.RejectedBy = decidedBy
	}

	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: record.Clone()})
	return record.Clone(), nil
}

func (s *service) load(ctx context.Context, id string) (*approval.Approval, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	record, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("approval %s: %w", id, dao.ErrNotFound)
	}
	return record, nil
}

var _ approval.Service = (*service)(nil)

package approval

import (
	"context"

	"github.com/viant/warden/service/messaging"
)

// Service defines the approval store interface.
type Service interface {
	// Create records a new pending approval for the supplied request and
	// returns it with a generated id.
	Create(ctx context.Context, request *Request) (*Approval, error)

	// Get returns the approval or dao.ErrNotFound.
	Get(ctx context.Context, id string) (*Approval, error)

	// Approve transitions a pending approval to approved. Re-approving an
	// already approved record is an idempotent no-op; any other terminal
	// transition fails with ErrConflict.
	Approve(ctx context.Context, id, approvedBy, note string) (*Approval, error)

	// Reject is symmetric to Approve.
	Reject(ctx context.Context, id, rejectedBy, note string) (*Approval, error)

	// IsFullyApproved reports whether the status is exactly approved.
	IsFullyApproved(ctx context.Context, id string) (bool, error)

	// ListPending returns all approvals still awaiting a decision.
	ListPending(ctx context.Context) ([]*Approval, error)

	// List returns approvals filtered by status; an empty status lists all.
	List(ctx context.Context, status Status) ([]*Approval, error)

	// Queue exposes the lifecycle event fan-out.
	Queue() messaging.Queue[Event]
}

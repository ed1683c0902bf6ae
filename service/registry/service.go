package registry

import (
	"context"
	"sync"

	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/dao"
)

// Service is the single source of truth for the latest known state of each
// execution. All operations are thread-safe and return copies of the stored
// snapshots to prevent data races when callers mutate the returned instances.
type Service struct {
	commands map[string]*command.Command
	mux      sync.RWMutex
}

// New creates an empty registry.
func New() *Service {
	return &Service{commands: map[string]*command.Command{}}
}

// Register persists (a clone of) the supplied command. Registration is an
// idempotent upsert keyed by execution id: re-registering the same id
// replaces the stored snapshot rather than creating a duplicate.
func (s *Service) Register(_ context.Context, cmd *command.Command) error {
	if cmd == nil {
		return dao.ErrNilEntity
	}
	if cmd.ExecutionID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	s.commands[cmd.ExecutionID] = cmd.Clone()
	return nil
}

// Get retrieves a copy of the latest snapshot or dao.ErrNotFound.
func (s *Service) Get(_ context.Context, executionID string) (*command.Command, error) {
	if executionID == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	cmd, ok := s.commands[executionID]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return cmd.Clone(), nil
}

// Block transitions the stored snapshot to BLOCKED and attaches the
// governance decision. When the decision carries an approval id it is linked
// to the command as well.
func (s *Service) Block(_ context.Context, executionID string, decision map[string]interface{}) error {
	return s.update(executionID, func(cmd *command.Command) {
		cmd.State = command.StateBlocked
		cmd.Decision = decision
		if approvalID, ok := decision["approvalId"].(string); ok && approvalID != "" {
			cmd.ApprovalID = approvalID
		}
	})
}

// Complete transitions the stored snapshot to COMPLETED and attaches the
// final result.
func (s *Service) Complete(_ context.Context, executionID string, result map[string]interface{}) error {
	return s.update(executionID, func(cmd *command.Command) {
		cmd.State = command.StateCompleted
		cmd.Result = result
	})
}

// Fail transitions the stored snapshot to FAILED and attaches the failure
// result.
func (s *Service) Fail(_ context.Context, executionID string, result map[string]interface{}) error {
	return s.update(executionID, func(cmd *command.Command) {
		cmd.State = command.StateFailed
		cmd.Result = result
	})
}

// List returns copies of all stored snapshots.
func (s *Service) List(_ context.Context) ([]*command.Command, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*command.Command, 0, len(s.commands))
	for _, cmd := range s.commands {
		out = append(out, cmd.Clone())
	}
	return out, nil
}

func (s *Service) update(executionID string, mutate func(*command.Command)) error {
	if executionID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	cmd, ok := s.commands[executionID]
	if !ok {
		return dao.ErrNotFound
	}
	mutate(cmd)
	return nil
}

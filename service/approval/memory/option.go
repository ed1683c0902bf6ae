package memory

import (
	"github.com/viant/warden/service/approval"
	"github.com/viant/warden/service/messaging"
)

type Option func(*service)

// WithEventQueue replaces the default in-memory lifecycle event queue, for
// example to share one fan-out across several stores.
func WithEventQueue(q messaging.Queue[approval.Event]) Option {
	return func(s *service) { s.events = q }
}

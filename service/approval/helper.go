package approval

import (
	"context"
	"time"
)

// DecisionFunc decides what to do with a pending request.
// Return (true,  "") to approve
//
//	(false, "…") to reject with reason.
type DecisionFunc func(a *Approval) (approved bool, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request.  It returns stop() – call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context,
	svc Service,
	decidedBy string,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				pending, _ := svc.ListPending(ctx)
				for _, a := range pending {
					if ok, reason := fn(a); ok {
						_, _ = svc.Approve(ctx, a.ID, decidedBy, reason)
					} else {
						_, _ = svc.Reject(ctx, a.ID, decidedBy, reason)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests
func AutoApprove(ctx context.Context,
	svc Service,
	decidedBy string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc, decidedBy,
		func(*Approval) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending requests with the given reason
func AutoReject(ctx context.Context,
	svc Service,
	decidedBy string,
	reason string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc, decidedBy,
		func(*Approval) (bool, string) { return false, reason }, interval)
}

// Package warden provides a governed command execution pipeline.
//
// Every command runs through the same gate: it is registered in the
// execution registry, evaluated against the role policy, held for human
// approval when required and only then dispatched – to the sandboxed tool
// runtime, to a workflow expansion or to an external write executor. The
// pipeline records an append-only audit trail of tool invocations, writes
// and job handoffs.
//
// End-users typically interact through the Service façade exposed by this
// package:
//
//	srv, _ := warden.New()
//	result, _ := srv.Execute(ctx, &command.Command{
//		Command: "tool_call",
//		Params:  map[string]interface{}{"action": "analysis.run"},
//	})
//	if result.State == command.StateBlocked {
//		srv.Approve(ctx, result.ApprovalID, "reviewer", "ok")
//		result, _ = srv.Resume(ctx, result.ExecutionID)
//	}
//
// For more details see the README and individual sub-packages.
package warden

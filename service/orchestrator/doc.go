// Package orchestrator runs the governed execution pipeline: normalize the
// incoming command, register it, evaluate governance and either block the
// execution or dispatch it to a handler and record the outcome.
package orchestrator

// Package tool provides the per-agent allow-listed, sandboxed tool layer:
// the catalog of known tools with their executability status, the agent
// registry with explicit allow-lists, and the deterministic offline runtime
// invoking registered tool services.
package tool

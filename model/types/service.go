package types

// Service is a tool service interface. Each service groups one or more
// deterministic, offline actions exposed to the sandboxed tool runtime.
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}

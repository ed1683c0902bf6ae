// Package policy maps initiator identities onto roles and decides whether a
// role may request a given directive. It is purely declarative – the package
// never executes anything, it only answers allow/deny questions for the
// governance evaluator.
package policy

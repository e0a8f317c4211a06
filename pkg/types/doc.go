// Package types defines the contracts between the masquerade command core and
// its collaborators: the disguise engine (Factory, Masquerade, Key), the host
// session (Source, Participant, Observer), and the standard error types
// reported back to command invokers.
package types

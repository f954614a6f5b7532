package ledger

import "errors"

// Every ledger failure is a precondition violation, terminal for that call:
// nothing is retried and no partial write survives.
var (
	// ErrUnauthorized is returned when an administrative operation is
	// attempted by an address other than the authority.
	ErrUnauthorized = errors.New("caller is not the authority")
	// ErrPhaseViolation is returned when an operation is attempted on the
	// wrong side of the deadline.
	ErrPhaseViolation = errors.New("operation not allowed in current phase")
	// ErrSecretNotSet is returned by key-derivation dependent operations
	// before the voting box secret has been set.
	ErrSecretNotSet = errors.New("voting box secret not set")
	// ErrAlreadySet is returned when setting the secret a second time.
	// There is no secret rotation.
	ErrAlreadySet = errors.New("voting box secret already set")
	// ErrAlreadyRegistered is returned when registering a known address.
	ErrAlreadyRegistered = errors.New("address already registered")
	// ErrNotRegistered is returned when an unregistered address casts.
	ErrNotRegistered = errors.New("address not registered")
	// ErrAlreadyVoted is returned when a voter casts a second time.
	ErrAlreadyVoted = errors.New("address already voted")
	// ErrVoteMismatch is returned when a recast does not restate the
	// exact ciphertext already stored.
	ErrVoteMismatch = errors.New("recast ciphertext does not match stored vote")
)

// Package types holds the shared data model of the voting box: voter and
// vote records, the election phase and the audit event catalogue.
package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Phase is the temporal partition of the election. It is a pure function of
// wall-clock time against the election deadline: Open before the deadline,
// Closed from the deadline on. There is no manual transition and no way back.
type Phase uint8

const (
	PhaseOpen Phase = iota
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	}
	return "unknown"
}

// Validity is the tri-state outcome of vote validation. Every vote starts as
// ValidityUnknown until the validation run after the deadline settles it.
type Validity uint8

const (
	ValidityUnknown Validity = iota
	ValidityValid
	ValidityInvalid
)

func (v Validity) String() string {
	switch v {
	case ValidityValid:
		return "valid"
	case ValidityInvalid:
		return "invalid"
	}
	return "unknown"
}

// Voter is the registration record of a single address. EncryptedKey is the
// voter public key combined with the voting box secret (see ledger.DeriveKey);
// it is an obfuscation value, not a real encryption of the key.
type Voter struct {
	Address      HexBytes `json:"address"`
	EncryptedKey *BigInt  `json:"encryptedKey"`
	HasVoted     bool     `json:"hasVoted"`
}

// Addr returns the voter address as a common.Address.
func (v *Voter) Addr() common.Address {
	return common.BytesToAddress(v.Address)
}

// Vote is the single ballot slot of a registered voter. The ciphertext is
// opaque to the ledger beyond equality comparison on recast; the proof blob
// is only ever handed to the external verifier.
type Vote struct {
	EncryptedVote *BigInt   `json:"encryptedVote"`
	Timestamp     time.Time `json:"timestamp"`
	Proof         HexBytes  `json:"proof"`
	Validity      Validity  `json:"validity"`
}

// Event types recorded in the audit journal.
const (
	EventSecretSet       = "secret-set"
	EventVoterRegistered = "voter-registered"
	EventVoteCast        = "vote-cast"
	EventVoteValidated   = "vote-validated"
	EventVoterRemoved    = "voter-removed"
	EventRevoteStarted   = "revote-started"
)

// Event is one entry of the append-only audit journal. Seq is the global
// ordering key; ID is a random identifier for external correlation. Valid is
// only set on vote-validated events.
type Event struct {
	Seq       uint64    `json:"seq"`
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Address   HexBytes  `json:"address,omitempty"`
	Valid     *bool     `json:"valid,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

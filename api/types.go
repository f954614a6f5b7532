package api

import (
	"time"

	"github.com/voteledger/ballotbox/types"
)

// SecretRequest sets the voting box secret. Signed by the authority.
type SecretRequest struct {
	Secret    *types.BigInt  `json:"secret"`
	Signature types.HexBytes `json:"signature"`
}

// RegisterRequest registers a voter address. Signed by the authority.
type RegisterRequest struct {
	Address   types.HexBytes `json:"address"`
	PublicKey *types.BigInt  `json:"publicKey"`
	Signature types.HexBytes `json:"signature"`
}

// VoteRequest casts or recasts a vote. The signature identifies the voter.
type VoteRequest struct {
	EncryptedVote *types.BigInt  `json:"encryptedVote"`
	Proof         types.HexBytes `json:"proof"`
	Signature     types.HexBytes `json:"signature"`
}

// AdminRequest is the body of the signature-only administrative endpoints
// (validation, revote). Signed by the authority.
type AdminRequest struct {
	Signature types.HexBytes `json:"signature"`
}

// CountResponse carries the registered voter count.
type CountResponse struct {
	Count int `json:"count"`
}

// PhaseResponse carries the current phase and the fixed deadline.
type PhaseResponse struct {
	Phase    string    `json:"phase"`
	Deadline time.Time `json:"deadline"`
}

// RevoteResponse carries the number of voters purged by a revote.
type RevoteResponse struct {
	Removed int `json:"removed"`
}

// RootResponse carries the audit tree root.
type RootResponse struct {
	Root types.HexBytes `json:"root"`
}

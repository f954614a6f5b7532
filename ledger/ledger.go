// Package ledger implements the voting box state machine: voter
// registration, one encrypted vote per voter inside a fixed time window,
// proof-based validation after the deadline, and the bounded revote
// recovery path that purges non-participants.
//
// All mutating operations are serialized behind a single mutex and applied
// as one storage transaction each, so no interleaving and no torn write can
// be observed. Reads are allowed concurrently and always see a committed
// snapshot.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/proof"
	"github.com/voteledger/ballotbox/state"
	"github.com/voteledger/ballotbox/storage"
	"github.com/voteledger/ballotbox/types"
)

// Config carries the immutable election parameters. Authority and Deadline
// never change for the lifetime of the box; a genuinely fresh round after a
// revote requires a new deployment with a new deadline.
type Config struct {
	Authority common.Address
	Deadline  time.Time
	Verifier  proof.Verifier
	// Now is the clock used for phase decisions and vote timestamps.
	// Defaults to time.Now.
	Now func() time.Time
}

// Ledger is the authority-administered voting box.
type Ledger struct {
	stg       *storage.Storage
	audit     *state.State
	authority common.Address
	deadline  time.Time
	verifier  proof.Verifier
	now       func() time.Time

	// mu serializes all mutating operations.
	mu sync.Mutex
}

// ValidationSummary is the tally of a validation run.
type ValidationSummary struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// New creates a voting box over the given storage. The audit tree is rebuilt
// from the persisted records so its root always matches the storage.
func New(stg *storage.Storage, cfg Config) (*Ledger, error) {
	if cfg.Authority == (common.Address{}) {
		return nil, fmt.Errorf("missing authority address")
	}
	if cfg.Deadline.IsZero() {
		return nil, fmt.Errorf("missing deadline")
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("missing proof verifier")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	audit, err := state.New(stg.Database())
	if err != nil {
		return nil, fmt.Errorf("cannot open audit tree: %w", err)
	}
	if err := audit.Rebuild(stg); err != nil {
		return nil, fmt.Errorf("cannot rebuild audit tree: %w", err)
	}
	return &Ledger{
		stg:       stg,
		audit:     audit,
		authority: cfg.Authority,
		deadline:  cfg.Deadline,
		verifier:  cfg.Verifier,
		now:       cfg.Now,
	}, nil
}

// Authority returns the administrative address of the box.
func (l *Ledger) Authority() common.Address {
	return l.authority
}

// Deadline returns the fixed voting deadline.
func (l *Ledger) Deadline() time.Time {
	return l.deadline
}

// Phase returns Open before the deadline and Closed from the deadline on.
// The transition is a pure function of the clock: no stored state, no manual
// trigger, and no way back once Closed.
func (l *Ledger) Phase() types.Phase {
	if l.now().Before(l.deadline) {
		return types.PhaseOpen
	}
	return types.PhaseClosed
}

// SetSecret stores the one-time voting box secret. Write-once: a second call
// always fails with ErrAlreadySet, there is no rotation.
func (l *Ledger) SetSecret(caller common.Address, secret *big.Int) error {
	if caller != l.authority {
		return ErrUnauthorized
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.stg.Secret(); err == nil {
		return ErrAlreadySet
	}
	if err := l.stg.SetSecret(secret); err != nil {
		return fmt.Errorf("cannot store secret: %w", err)
	}
	log.Infow("voting box secret set", "authority", caller.Hex())
	return nil
}

// DeriveKey combines a voter public key with the voting box secret.
//
// The combination is a plain bitwise XOR: deterministic and self-inverse
// (deriving twice with the same secret yields the key back). It is an
// obfuscation placeholder inherited from the registry design, NOT an
// encryption scheme, and must not be silently replaced with a one-way hash:
// the registry depends on the transform being invertible with the secret.
func (l *Ledger) DeriveKey(publicKey *big.Int) (*big.Int, error) {
	secret, err := l.stg.Secret()
	if err != nil {
		return nil, ErrSecretNotSet
	}
	return new(big.Int).Xor(publicKey, secret), nil
}

// Register creates the voter record for addr. Authority-only, open phase
// only, one registration per address ever (until a revote purges it).
func (l *Ledger) Register(caller, addr common.Address, publicKey *big.Int) error {
	if caller != l.authority {
		return ErrUnauthorized
	}
	if l.Phase() != types.PhaseOpen {
		return ErrPhaseViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	encKey, err := l.DeriveKey(publicKey)
	if err != nil {
		return err
	}
	if _, err := l.stg.Voter(addr); err == nil {
		return ErrAlreadyRegistered
	}
	voter := &types.Voter{
		Address:      addr.Bytes(),
		EncryptedKey: types.FromBigInt(encKey),
		HasVoted:     false,
	}
	if err := l.stg.AddVoter(voter); err != nil {
		return fmt.Errorf("cannot store voter: %w", err)
	}
	if err := l.audit.Update(addr, voter, nil); err != nil {
		return fmt.Errorf("cannot update audit tree: %w", err)
	}
	log.Infow("voter registered", "address", addr.Hex())
	return nil
}

// CastVote stores the encrypted vote of the caller and marks the voter as
// having voted, atomically. One vote per voter: a second cast fails with
// ErrAlreadyVoted.
func (l *Ledger) CastVote(caller common.Address, encryptedVote *big.Int, proofBlob []byte) error {
	if l.Phase() != types.PhaseOpen {
		return ErrPhaseViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	voter, err := l.castPreconditions(caller)
	if err != nil {
		return err
	}
	if voter.HasVoted {
		return ErrAlreadyVoted
	}
	return l.storeVote(voter, encryptedVote, proofBlob)
}

// RecastVote re-submits an already cast vote, refreshing its timestamp and
// proof. The ciphertext must restate the stored one exactly: recast exists
// so a voter can resubmit a proof whose first transmission failed, it is not
// a vote-change mechanism.
func (l *Ledger) RecastVote(caller common.Address, encryptedVote *big.Int, proofBlob []byte) error {
	if l.Phase() != types.PhaseOpen {
		return ErrPhaseViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	voter, err := l.castPreconditions(caller)
	if err != nil {
		return err
	}
	stored, err := l.stg.Vote(caller)
	if err != nil {
		// nothing stored to restate
		return ErrVoteMismatch
	}
	if stored.EncryptedVote.MathBigInt().Cmp(encryptedVote) != 0 {
		return ErrVoteMismatch
	}
	return l.storeVote(voter, encryptedVote, proofBlob)
}

// castPreconditions checks the shared cast/recast gates: secret set and
// caller registered.
func (l *Ledger) castPreconditions(caller common.Address) (*types.Voter, error) {
	if _, err := l.stg.Secret(); err != nil {
		return nil, ErrSecretNotSet
	}
	voter, err := l.stg.Voter(caller)
	if err != nil {
		return nil, ErrNotRegistered
	}
	return voter, nil
}

func (l *Ledger) storeVote(voter *types.Voter, encryptedVote *big.Int, proofBlob []byte) error {
	vote := &types.Vote{
		EncryptedVote: types.FromBigInt(encryptedVote),
		Timestamp:     l.now().UTC(),
		Proof:         proofBlob,
		Validity:      types.ValidityUnknown,
	}
	voter.HasVoted = true
	if err := l.stg.StoreVote(voter, vote); err != nil {
		return fmt.Errorf("cannot store vote: %w", err)
	}
	if err := l.audit.Update(voter.Addr(), voter, vote); err != nil {
		return fmt.Errorf("cannot update audit tree: %w", err)
	}
	log.Infow("vote cast", "address", voter.Addr().Hex(), "timestamp", vote.Timestamp)
	return nil
}

// ValidateAll settles the validity of every stored vote: a vote is valid if
// its timestamp is within the deadline and the external verifier accepts its
// proof. Authority-only, closed phase only. Votes are visited in
// registration order, each exactly once. The run is idempotent: repeating it
// with unchanged inputs recomputes the same flags.
func (l *Ledger) ValidateAll(caller common.Address) (*ValidationSummary, error) {
	if caller != l.authority {
		return nil, ErrUnauthorized
	}
	if l.Phase() != types.PhaseClosed {
		return nil, ErrPhaseViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.stg.Secret(); err != nil {
		return nil, ErrSecretNotSet
	}
	addrs, err := l.stg.RegisteredAddresses()
	if err != nil {
		return nil, err
	}
	summary := &ValidationSummary{}
	var results []storage.ValidationResult
	for _, addr := range addrs {
		vote, err := l.stg.Vote(addr)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue // registered but never voted
			}
			return nil, err
		}
		valid := !vote.Timestamp.After(l.deadline) && l.verifier.Verify(vote.Proof)
		if valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		results = append(results, storage.ValidationResult{Address: addr, Valid: valid})
		log.Debugw("vote validated", "address", addr.Hex(), "valid", valid)
	}
	if err := l.stg.ApplyValidation(results); err != nil {
		return nil, fmt.Errorf("cannot apply validation: %w", err)
	}
	for _, r := range results {
		voter, err := l.stg.Voter(r.Address)
		if err != nil {
			return nil, err
		}
		vote, err := l.stg.Vote(r.Address)
		if err != nil {
			return nil, err
		}
		if err := l.audit.Update(r.Address, voter, vote); err != nil {
			return nil, fmt.Errorf("cannot update audit tree: %w", err)
		}
	}
	log.Infow("validation run completed", "valid", summary.Valid, "invalid", summary.Invalid)
	return summary, nil
}

// InitiateRevote purges every registered voter that did not cast, preparing
// the registry for a future registration round. Authority-only, closed
// phase only.
//
// The deadline is NOT reset and the phase never reopens: a complete fresh
// round needs a new deployment. This gap is inherited from the original
// design on purpose.
func (l *Ledger) InitiateRevote(caller common.Address) (int, error) {
	if caller != l.authority {
		return 0, ErrUnauthorized
	}
	if l.Phase() != types.PhaseClosed {
		return 0, ErrPhaseViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.stg.Secret(); err != nil {
		return 0, ErrSecretNotSet
	}
	addrs, err := l.stg.RegisteredAddresses()
	if err != nil {
		return 0, err
	}
	var removed []common.Address
	for _, addr := range addrs {
		voter, err := l.stg.Voter(addr)
		if err != nil {
			return 0, err
		}
		if !voter.HasVoted {
			removed = append(removed, addr)
		}
	}
	if err := l.stg.ApplyRevote(removed); err != nil {
		return 0, fmt.Errorf("cannot apply revote: %w", err)
	}
	for _, addr := range removed {
		if err := l.audit.Remove(addr); err != nil {
			return 0, fmt.Errorf("cannot update audit tree: %w", err)
		}
		log.Debugw("voter removed", "address", addr.Hex())
	}
	log.Infow("revote started", "removed", len(removed))
	return len(removed), nil
}

// Count returns the number of currently registered voters, reflecting any
// removals done by a revote.
func (l *Ledger) Count() (int, error) {
	return l.stg.CountVoters()
}

// Voter returns the registration record of addr, or ErrNotRegistered.
func (l *Ledger) Voter(addr common.Address) (*types.Voter, error) {
	voter, err := l.stg.Voter(addr)
	if err != nil {
		return nil, ErrNotRegistered
	}
	return voter, nil
}

// VoteOf returns the vote stored for addr, if any.
func (l *Ledger) VoteOf(addr common.Address) (*types.Vote, error) {
	return l.stg.Vote(addr)
}

// Events replays the audit journal in order.
func (l *Ledger) Events() ([]*types.Event, error) {
	return l.stg.Events()
}

// Root returns the current audit tree root.
func (l *Ledger) Root() (types.HexBytes, error) {
	return l.audit.Root()
}

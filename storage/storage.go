// Package storage persists the voting box state in a prefixed key-value
// store. The following prefixes are used:
//   - 'm/'  for election metadata (voting box secret, journal counters)
//   - 'vt/' for voter registration records
//   - 'v/'  for cast votes (with their proofs)
//   - 'ri/' for the ordered registered-address index
//   - 'e/'  for the append-only audit event journal
//
// The registered-address index assigns each registration a monotonically
// increasing sequence number, so iteration always happens in registration
// order. Multi-record mutations (cast, validation, revote) are applied in a
// single write transaction: either all of their effects persist or none do.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/voteledger/ballotbox/types"
)

var (
	// Prefixes for the keys in the database.
	metaPrefix  = []byte("m/")
	voterPrefix = []byte("vt/")
	votePrefix  = []byte("v/")
	indexPrefix = []byte("ri/")
	eventPrefix = []byte("e/")

	// Keys under the metadata prefix.
	keySecret   = []byte("secret")
	keyVoterSeq = []byte("vseq")
	keyEventSeq = []byte("eseq")
)

// ErrNotFound is returned when the requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Storage gives access to the persisted voting box state.
type Storage struct {
	db db.Database
}

// New creates a new Storage instance over the given database.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	s.db.Close()
}

// Database returns the underlying database, so other components (such as the
// audit state tree) can share it under their own prefix.
func (s *Storage) Database() db.Database {
	return s.db
}

// SetSecret stores the voting box secret and records the secret-set event.
// It does not check for a previous value; the ledger enforces write-once.
func (s *Storage) SetSecret(secret *big.Int) error {
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	mTx := prefixeddb.NewPrefixedWriteTx(wTx, metaPrefix)
	if err := mTx.Set(keySecret, secret.Bytes()); err != nil {
		return err
	}
	if err := s.appendEvent(wTx, types.EventSecretSet, nil, nil); err != nil {
		return err
	}
	return wTx.Commit()
}

// Secret returns the stored voting box secret, or ErrNotFound if it has not
// been set yet.
func (s *Storage) Secret() (*big.Int, error) {
	data, err := prefixeddb.NewPrefixedReader(s.db, metaPrefix).Get(keySecret)
	if err != nil {
		return nil, ErrNotFound
	}
	return new(big.Int).SetBytes(data), nil
}

// AddVoter stores a new voter record, appends its address to the registered
// address index and records the voter-registered event, all in one
// transaction.
func (s *Storage) AddVoter(v *types.Voter) error {
	val, err := encodeArtifact(v)
	if err != nil {
		return fmt.Errorf("encode voter: %w", err)
	}
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(wTx, voterPrefix).Set(v.Address, val); err != nil {
		return err
	}
	seq, err := s.nextSeq(wTx, keyVoterSeq)
	if err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(wTx, indexPrefix).Set(seqKey(seq), v.Address); err != nil {
		return err
	}
	if err := s.appendEvent(wTx, types.EventVoterRegistered, v.Address, nil); err != nil {
		return err
	}
	return wTx.Commit()
}

// Voter retrieves the voter record for the given address. Returns
// ErrNotFound if the address is not registered.
func (s *Storage) Voter(addr common.Address) (*types.Voter, error) {
	data, err := prefixeddb.NewPrefixedReader(s.db, voterPrefix).Get(addr.Bytes())
	if err != nil {
		return nil, ErrNotFound
	}
	v := &types.Voter{}
	if err := decodeArtifact(data, v); err != nil {
		return nil, fmt.Errorf("decode voter: %w", err)
	}
	return v, nil
}

// StoreVote writes the vote slot and the updated voter record in one
// transaction, and records the vote-cast event. It is used both for the
// initial cast and for a recast.
func (s *Storage) StoreVote(v *types.Voter, vote *types.Vote) error {
	voterVal, err := encodeArtifact(v)
	if err != nil {
		return fmt.Errorf("encode voter: %w", err)
	}
	voteVal, err := encodeArtifact(vote)
	if err != nil {
		return fmt.Errorf("encode vote: %w", err)
	}
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(wTx, voterPrefix).Set(v.Address, voterVal); err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(wTx, votePrefix).Set(v.Address, voteVal); err != nil {
		return err
	}
	if err := s.appendEvent(wTx, types.EventVoteCast, v.Address, nil); err != nil {
		return err
	}
	return wTx.Commit()
}

// Vote retrieves the vote cast by the given address. Returns ErrNotFound if
// the address has no stored vote.
func (s *Storage) Vote(addr common.Address) (*types.Vote, error) {
	data, err := prefixeddb.NewPrefixedReader(s.db, votePrefix).Get(addr.Bytes())
	if err != nil {
		return nil, ErrNotFound
	}
	vote := &types.Vote{}
	if err := decodeArtifact(data, vote); err != nil {
		return nil, fmt.Errorf("decode vote: %w", err)
	}
	return vote, nil
}

// ValidationResult is the settled validity of one address, produced by a
// validation run.
type ValidationResult struct {
	Address common.Address
	Valid   bool
}

// ApplyValidation overwrites the validity of every listed vote and records a
// vote-validated event per address, all in one transaction.
func (s *Storage) ApplyValidation(results []ValidationResult) error {
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	vTx := prefixeddb.NewPrefixedWriteTx(wTx, votePrefix)
	for _, r := range results {
		data, err := vTx.Get(r.Address.Bytes())
		if err != nil {
			return fmt.Errorf("vote for %s: %w", r.Address, ErrNotFound)
		}
		vote := &types.Vote{}
		if err := decodeArtifact(data, vote); err != nil {
			return fmt.Errorf("decode vote: %w", err)
		}
		if r.Valid {
			vote.Validity = types.ValidityValid
		} else {
			vote.Validity = types.ValidityInvalid
		}
		val, err := encodeArtifact(vote)
		if err != nil {
			return fmt.Errorf("encode vote: %w", err)
		}
		if err := vTx.Set(r.Address.Bytes(), val); err != nil {
			return err
		}
		valid := r.Valid
		if err := s.appendEvent(wTx, types.EventVoteValidated, r.Address.Bytes(), &valid); err != nil {
			return err
		}
	}
	return wTx.Commit()
}

// ApplyRevote deletes the voter records and index entries of all the listed
// addresses, recording a voter-removed event per address followed by a
// single revote-started event, all in one transaction.
func (s *Storage) ApplyRevote(addrs []common.Address) error {
	// map each address back to its index entry
	seqs := make(map[common.Address]uint64, len(addrs))
	if err := prefixeddb.NewPrefixedReader(s.db, indexPrefix).Iterate(nil, func(k, v []byte) bool {
		seqs[common.BytesToAddress(v)] = binary.BigEndian.Uint64(k)
		return true
	}); err != nil {
		return fmt.Errorf("iterate address index: %w", err)
	}

	wTx := s.db.WriteTx()
	defer wTx.Discard()
	vtTx := prefixeddb.NewPrefixedWriteTx(wTx, voterPrefix)
	riTx := prefixeddb.NewPrefixedWriteTx(wTx, indexPrefix)
	for _, addr := range addrs {
		if err := vtTx.Delete(addr.Bytes()); err != nil {
			return err
		}
		seq, ok := seqs[addr]
		if !ok {
			return fmt.Errorf("address %s missing from index", addr)
		}
		if err := riTx.Delete(seqKey(seq)); err != nil {
			return err
		}
		if err := s.appendEvent(wTx, types.EventVoterRemoved, addr.Bytes(), nil); err != nil {
			return err
		}
	}
	if err := s.appendEvent(wTx, types.EventRevoteStarted, nil, nil); err != nil {
		return err
	}
	return wTx.Commit()
}

// RegisteredAddresses returns all currently registered addresses in
// registration order.
func (s *Storage) RegisteredAddresses() ([]common.Address, error) {
	var addrs []common.Address
	if err := prefixeddb.NewPrefixedReader(s.db, indexPrefix).Iterate(nil, func(_, v []byte) bool {
		addrs = append(addrs, common.BytesToAddress(v))
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate address index: %w", err)
	}
	return addrs, nil
}

// CountVoters returns the number of currently registered voters.
func (s *Storage) CountVoters() (int, error) {
	count := 0
	if err := prefixeddb.NewPrefixedReader(s.db, indexPrefix).Iterate(nil, func(_, _ []byte) bool {
		count++
		return true
	}); err != nil {
		return 0, fmt.Errorf("iterate address index: %w", err)
	}
	return count, nil
}

// nextSeq increments and returns the sequence counter stored under the given
// metadata key, within the passed transaction. The first value is 1.
func (s *Storage) nextSeq(wTx db.WriteTx, key []byte) (uint64, error) {
	mTx := prefixeddb.NewPrefixedWriteTx(wTx, metaPrefix)
	seq := uint64(0)
	if data, err := mTx.Get(key); err == nil && len(data) == 8 {
		seq = binary.BigEndian.Uint64(data)
	}
	seq++
	if err := mTx.Set(key, seqKey(seq)); err != nil {
		return 0, err
	}
	return seq, nil
}

// appendEvent writes one audit journal entry within the passed transaction.
func (s *Storage) appendEvent(wTx db.WriteTx, etype string, addr []byte, valid *bool) error {
	seq, err := s.nextSeq(wTx, keyEventSeq)
	if err != nil {
		return err
	}
	e := &types.Event{
		Seq:       seq,
		ID:        uuid.New().String(),
		Type:      etype,
		Address:   addr,
		Valid:     valid,
		Timestamp: time.Now().UTC(),
	}
	val, err := encodeArtifact(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, eventPrefix).Set(seqKey(seq), val)
}

// Events replays the audit journal in order.
func (s *Storage) Events() ([]*types.Event, error) {
	var events []*types.Event
	var ierr error
	if err := prefixeddb.NewPrefixedReader(s.db, eventPrefix).Iterate(nil, func(_, v []byte) bool {
		e := &types.Event{}
		if ierr = decodeArtifact(v, e); ierr != nil {
			return false
		}
		events = append(events, e)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if ierr != nil {
		return nil, fmt.Errorf("decode event: %w", ierr)
	}
	return events, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

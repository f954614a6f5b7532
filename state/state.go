// Package state maintains a Merkle tree over the voting box records, keyed
// by voter address. The root is an audit commitment to the full registry and
// ballot state; external observers can track it across mutations without
// reading the records themselves.
package state

import (
	"crypto/sha256"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/voteledger/ballotbox/storage"
	"github.com/voteledger/ballotbox/types"
)

const (
	// MaxLevels is the tree depth: addresses are 20-byte keys.
	MaxLevels = 160
)

// statePrefix keeps the tree apart from the storage artifacts when both
// share a database.
var statePrefix = []byte("st/")

// removedLeaf is the tombstone value for voters purged by a revote.
var removedLeaf = make([]byte, 32)

// State is the audit tree of the voting box.
type State struct {
	tree *arbo.Tree
}

// New creates or opens the audit tree on the given database.
func New(database db.Database) (*State, error) {
	pdb := prefixeddb.NewPrefixedDatabase(database, statePrefix)
	tree, err := arbo.NewTree(arbo.Config{
		Database:     pdb,
		MaxLevels:    MaxLevels,
		HashFunction: arbo.HashFunctionBlake2b,
	})
	if err != nil {
		return nil, err
	}
	return &State{tree: tree}, nil
}

// Update recomputes the leaf of the given address from its current voter and
// vote records. A nil vote is a registered voter that has not cast yet.
func (s *State) Update(addr common.Address, voter *types.Voter, vote *types.Vote) error {
	return s.set(addr, leafValue(voter, vote))
}

// Remove replaces the leaf of the given address with a tombstone.
func (s *State) Remove(addr common.Address) error {
	return s.set(addr, removedLeaf)
}

// Root returns the current audit root.
func (s *State) Root() (types.HexBytes, error) {
	root, err := s.tree.Root()
	if err != nil {
		return nil, err
	}
	return types.HexBytes(root), nil
}

// Rebuild replays every record of the storage into the tree. It is used at
// startup so the tree always reflects the persisted records, even after an
// unclean shutdown between a storage commit and a tree update.
//
// Removal events from the journal are replayed first: a voter purged by a
// revote must stay tombstoned even when the shutdown happened between the
// storage commit and the tree update. Current registrations are applied
// after, so a re-registered address gets its live leaf back.
func (s *State) Rebuild(stg *storage.Storage) error {
	events, err := stg.Events()
	if err != nil {
		return err
	}
	for _, e := range events {
		if e.Type == types.EventVoterRemoved {
			if err := s.Remove(common.BytesToAddress(e.Address)); err != nil {
				return err
			}
		}
	}
	addrs, err := stg.RegisteredAddresses()
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		voter, err := stg.Voter(addr)
		if err != nil {
			return err
		}
		vote, err := stg.Vote(addr)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err := s.Update(addr, voter, vote); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) set(addr common.Address, value []byte) error {
	k := addr.Bytes()
	if _, _, err := s.tree.Get(k); err != nil {
		return s.tree.Add(k, value)
	}
	return s.tree.Update(k, value)
}

// leafValue commits to the voter record and, when present, the vote
// ciphertext and its settled validity.
func leafValue(voter *types.Voter, vote *types.Vote) []byte {
	h := sha256.New()
	h.Write(voter.Address)
	h.Write([]byte(voter.EncryptedKey.String()))
	if voter.HasVoted {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	if vote != nil {
		h.Write([]byte(vote.EncryptedVote.String()))
		h.Write(vote.Proof)
		h.Write([]byte{byte(vote.Validity)})
	}
	return h.Sum(nil)
}

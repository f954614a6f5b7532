package state

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/voteledger/ballotbox/storage"
	"github.com/voteledger/ballotbox/types"
)

func testVoter(addr common.Address) *types.Voter {
	return &types.Voter{
		Address:      addr.Bytes(),
		EncryptedKey: types.FromBigInt(big.NewInt(2)),
	}
}

func TestRootChangesOnUpdate(t *testing.T) {
	c := qt.New(t)
	st, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")

	empty, err := st.Root()
	c.Assert(err, qt.IsNil)

	voter := testVoter(addr)
	c.Assert(st.Update(addr, voter, nil), qt.IsNil)
	afterRegister, err := st.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(afterRegister.String(), qt.Not(qt.Equals), empty.String())

	voter.HasVoted = true
	vote := &types.Vote{
		EncryptedVote: types.FromBigInt(big.NewInt(99)),
		Timestamp:     time.Now(),
		Proof:         []byte("proof"),
	}
	c.Assert(st.Update(addr, voter, vote), qt.IsNil)
	afterVote, err := st.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(afterVote.String(), qt.Not(qt.Equals), afterRegister.String())
}

func TestUpdateIsDeterministic(t *testing.T) {
	c := qt.New(t)
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")

	roots := make([]string, 2)
	for i := range roots {
		st, err := New(metadb.NewTest(t))
		c.Assert(err, qt.IsNil)
		c.Assert(st.Update(addr, testVoter(addr), nil), qt.IsNil)
		root, err := st.Root()
		c.Assert(err, qt.IsNil)
		roots[i] = root.String()
	}
	c.Assert(roots[0], qt.Equals, roots[1])
}

func TestRemoveTombstones(t *testing.T) {
	c := qt.New(t)
	st, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")

	c.Assert(st.Update(addr, testVoter(addr), nil), qt.IsNil)
	before, err := st.Root()
	c.Assert(err, qt.IsNil)

	c.Assert(st.Remove(addr), qt.IsNil)
	after, err := st.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(after.String(), qt.Not(qt.Equals), before.String())
}

func TestRebuildTombstonesPurgedVoters(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	stg := storage.New(database)
	st, err := New(database)
	c.Assert(err, qt.IsNil)

	addrA := common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrB := common.HexToAddress("0x3333333333333333333333333333333333333333")
	voterA := testVoter(addrA)
	c.Assert(stg.AddVoter(voterA), qt.IsNil)
	c.Assert(st.Update(addrA, voterA, nil), qt.IsNil)
	voterB := testVoter(addrB)
	c.Assert(stg.AddVoter(voterB), qt.IsNil)
	voterB.HasVoted = true
	vote := &types.Vote{
		EncryptedVote: types.FromBigInt(big.NewInt(99)),
		Timestamp:     time.Now().UTC(),
		Proof:         []byte("proof"),
	}
	c.Assert(stg.StoreVote(voterB, vote), qt.IsNil)
	c.Assert(st.Update(addrB, voterB, vote), qt.IsNil)

	// the purge commits in storage but the process dies before the
	// matching tree update: addrA keeps its live leaf on disk
	c.Assert(stg.ApplyRevote([]common.Address{addrA}), qt.IsNil)

	restarted, err := New(database)
	c.Assert(err, qt.IsNil)
	c.Assert(restarted.Rebuild(stg), qt.IsNil)
	root, err := restarted.Root()
	c.Assert(err, qt.IsNil)

	// the replay must land on the tombstoned root, not the stale one
	expected, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)
	c.Assert(expected.Update(addrB, voterB, vote), qt.IsNil)
	c.Assert(expected.Remove(addrA), qt.IsNil)
	expRoot, err := expected.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root.String(), qt.Equals, expRoot.String())
}

func TestRebuildMatchesLiveTree(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	stg := storage.New(database)
	st, err := New(database)
	c.Assert(err, qt.IsNil)

	addrA := common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrB := common.HexToAddress("0x3333333333333333333333333333333333333333")

	voterA := testVoter(addrA)
	c.Assert(stg.AddVoter(voterA), qt.IsNil)
	c.Assert(st.Update(addrA, voterA, nil), qt.IsNil)

	voterB := testVoter(addrB)
	c.Assert(stg.AddVoter(voterB), qt.IsNil)
	voterB.HasVoted = true
	vote := &types.Vote{
		EncryptedVote: types.FromBigInt(big.NewInt(99)),
		Timestamp:     time.Now().UTC(),
		Proof:         []byte("proof"),
	}
	c.Assert(stg.StoreVote(voterB, vote), qt.IsNil)
	c.Assert(st.Update(addrB, voterB, vote), qt.IsNil)

	live, err := st.Root()
	c.Assert(err, qt.IsNil)

	// a fresh tree replaying the same records lands on the same root
	rebuilt, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)
	c.Assert(rebuilt.Rebuild(stg), qt.IsNil)
	root, err := rebuilt.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root.String(), qt.Equals, live.String())
}

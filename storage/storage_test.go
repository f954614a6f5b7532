package storage

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/voteledger/ballotbox/types"
)

func testVoter(addr common.Address, key int64) *types.Voter {
	return &types.Voter{
		Address:      addr.Bytes(),
		EncryptedKey: types.FromBigInt(big.NewInt(key)),
	}
}

func TestSecret(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	_, err := stg.Secret()
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	c.Assert(stg.SetSecret(big.NewInt(7)), qt.IsNil)
	secret, err := stg.Secret()
	c.Assert(err, qt.IsNil)
	c.Assert(secret.Int64(), qt.Equals, int64(7))

	events, err := stg.Events()
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Type, qt.Equals, types.EventSecretSet)
}

func TestVoterRoundTrip(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")

	_, err := stg.Voter(addr)
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	c.Assert(stg.AddVoter(testVoter(addr, 2)), qt.IsNil)
	voter, err := stg.Voter(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(voter.Addr(), qt.Equals, addr)
	c.Assert(voter.EncryptedKey.String(), qt.Equals, "2")
	c.Assert(voter.HasVoted, qt.IsFalse)

	count, err := stg.CountVoters()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 1)
}

func TestRegistrationOrder(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	// registration order must survive in the index, not address order
	addrs := []common.Address{
		common.HexToAddress("0x9999999999999999999999999999999999999999"),
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x5555555555555555555555555555555555555555"),
	}
	for i, addr := range addrs {
		c.Assert(stg.AddVoter(testVoter(addr, int64(i))), qt.IsNil)
	}
	got, err := stg.RegisteredAddresses()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, addrs)
}

func TestStoreVoteAtomicity(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	c.Assert(stg.AddVoter(testVoter(addr, 2)), qt.IsNil)

	voter, err := stg.Voter(addr)
	c.Assert(err, qt.IsNil)
	voter.HasVoted = true
	vote := &types.Vote{
		EncryptedVote: types.FromBigInt(big.NewInt(99)),
		Timestamp:     time.Now().UTC().Truncate(time.Second),
		Proof:         []byte("proof"),
		Validity:      types.ValidityUnknown,
	}
	c.Assert(stg.StoreVote(voter, vote), qt.IsNil)

	// the vote and the flag must both be visible
	stored, err := stg.Vote(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.EncryptedVote.Equal(vote.EncryptedVote), qt.IsTrue)
	c.Assert(string(stored.Proof), qt.Equals, "proof")
	voter, err = stg.Voter(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(voter.HasVoted, qt.IsTrue)
}

func TestApplyValidation(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))
	addrA := common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrB := common.HexToAddress("0x3333333333333333333333333333333333333333")
	for _, addr := range []common.Address{addrA, addrB} {
		v := testVoter(addr, 1)
		c.Assert(stg.AddVoter(v), qt.IsNil)
		v.HasVoted = true
		c.Assert(stg.StoreVote(v, &types.Vote{
			EncryptedVote: types.FromBigInt(big.NewInt(99)),
			Timestamp:     time.Now().UTC(),
			Proof:         []byte("proof"),
		}), qt.IsNil)
	}

	c.Assert(stg.ApplyValidation([]ValidationResult{
		{Address: addrA, Valid: true},
		{Address: addrB, Valid: false},
	}), qt.IsNil)

	voteA, err := stg.Vote(addrA)
	c.Assert(err, qt.IsNil)
	c.Assert(voteA.Validity, qt.Equals, types.ValidityValid)
	voteB, err := stg.Vote(addrB)
	c.Assert(err, qt.IsNil)
	c.Assert(voteB.Validity, qt.Equals, types.ValidityInvalid)

	// one vote-validated event per address, carrying the result
	events, err := stg.Events()
	c.Assert(err, qt.IsNil)
	var validated []*types.Event
	for _, e := range events {
		if e.Type == types.EventVoteValidated {
			validated = append(validated, e)
		}
	}
	c.Assert(validated, qt.HasLen, 2)
	c.Assert(*validated[0].Valid, qt.IsTrue)
	c.Assert(*validated[1].Valid, qt.IsFalse)
}

func TestApplyRevote(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))
	addrA := common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrB := common.HexToAddress("0x3333333333333333333333333333333333333333")
	c.Assert(stg.AddVoter(testVoter(addrA, 1)), qt.IsNil)
	c.Assert(stg.AddVoter(testVoter(addrB, 2)), qt.IsNil)

	c.Assert(stg.ApplyRevote([]common.Address{addrA}), qt.IsNil)

	_, err := stg.Voter(addrA)
	c.Assert(err, qt.ErrorIs, ErrNotFound)
	addrs, err := stg.RegisteredAddresses()
	c.Assert(err, qt.IsNil)
	c.Assert(addrs, qt.DeepEquals, []common.Address{addrB})
	count, err := stg.CountVoters()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 1)
}

func TestEventJournalOrder(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))
	c.Assert(stg.SetSecret(big.NewInt(7)), qt.IsNil)
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	c.Assert(stg.AddVoter(testVoter(addr, 2)), qt.IsNil)

	events, err := stg.Events()
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 2)
	c.Assert(events[0].Seq < events[1].Seq, qt.IsTrue)
	c.Assert(events[0].Type, qt.Equals, types.EventSecretSet)
	c.Assert(events[1].Type, qt.Equals, types.EventVoterRegistered)
	c.Assert(events[1].ID, qt.Not(qt.Equals), "")
}

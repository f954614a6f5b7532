package tests

import (
	"math/big"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/types"
	"github.com/voteledger/ballotbox/util"
)

func TestMain(m *testing.M) {
	log.Init("error", "stderr", nil)
	m.Run()
}

// TestFullElectionCycle walks a complete round over HTTP: secret, three
// registrations, two casts plus one recast, the deadline, validation, and a
// revote that purges the absentee.
func TestFullElectionCycle(t *testing.T) {
	c := qt.New(t)
	env := newEnv(t)

	alice, bob, carol := newVoter(t), newVoter(t), newVoter(t)

	// registration is gated on the secret
	err := env.cli.RegisterVoter(env.authority, alice.Address(), types.FromBigInt(big.NewInt(5)))
	c.Assert(err, qt.IsNotNil)

	c.Assert(env.cli.SetSecret(env.authority, types.FromBigInt(big.NewInt(7))), qt.IsNil)
	// write once
	c.Assert(env.cli.SetSecret(env.authority, types.FromBigInt(big.NewInt(9))), qt.IsNotNil)

	c.Assert(env.cli.RegisterVoter(env.authority, alice.Address(), types.FromBigInt(big.NewInt(5))), qt.IsNil)
	c.Assert(env.cli.RegisterVoter(env.authority, bob.Address(), types.FromBigInt(big.NewInt(12))), qt.IsNil)
	c.Assert(env.cli.RegisterVoter(env.authority, carol.Address(), types.FromBigInt(big.NewInt(3))), qt.IsNil)

	count, err := env.cli.VoterCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 3)

	// 5 XOR 7 = 2
	record, err := env.cli.Voter(alice.Address())
	c.Assert(err, qt.IsNil)
	c.Assert(record.EncryptedKey.String(), qt.Equals, "2")

	proofA := util.RandomBytes(32)
	proofA2 := util.RandomBytes(32)
	c.Assert(env.cli.CastVote(alice, types.FromBigInt(big.NewInt(99)), proofA), qt.IsNil)
	c.Assert(env.cli.CastVote(bob, types.FromBigInt(big.NewInt(41)), util.RandomBytes(32)), qt.IsNil)
	// double cast rejected
	c.Assert(env.cli.CastVote(alice, types.FromBigInt(big.NewInt(99)), proofA), qt.IsNotNil)
	// recast restates the ciphertext with a fresh proof
	c.Assert(env.cli.RecastVote(alice, types.FromBigInt(big.NewInt(99)), proofA2), qt.IsNil)
	c.Assert(env.cli.RecastVote(alice, types.FromBigInt(big.NewInt(17)), util.RandomBytes(32)), qt.IsNotNil)

	phase, err := env.cli.Phase()
	c.Assert(err, qt.IsNil)
	c.Assert(phase, qt.Equals, types.PhaseOpen.String())

	rootBefore, err := env.cli.Root()
	c.Assert(err, qt.IsNil)

	env.clock.Advance(2 * time.Hour)

	phase, err = env.cli.Phase()
	c.Assert(err, qt.IsNil)
	c.Assert(phase, qt.Equals, types.PhaseClosed.String())
	// casting is over
	c.Assert(env.cli.CastVote(carol, types.FromBigInt(big.NewInt(1)), []byte("proof-c")), qt.IsNotNil)

	valid, invalid, err := env.cli.RunValidation(env.authority)
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.Equals, 2)
	c.Assert(invalid, qt.Equals, 0)

	vote, err := env.cli.Vote(alice.Address())
	c.Assert(err, qt.IsNil)
	c.Assert(vote.EncryptedVote.String(), qt.Equals, "99")
	c.Assert(vote.Proof.String(), qt.Equals, types.HexBytes(proofA2).String())
	c.Assert(vote.Validity, qt.Equals, types.ValidityValid)

	// carol never cast, the revote purges her
	removed, err := env.cli.InitiateRevote(env.authority)
	c.Assert(err, qt.IsNil)
	c.Assert(removed, qt.Equals, 1)
	count, err = env.cli.VoterCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)
	_, err = env.cli.Voter(carol.Address())
	c.Assert(err, qt.IsNotNil)

	rootAfter, err := env.cli.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(rootAfter.String(), qt.Not(qt.Equals), rootBefore.String())

	events, err := env.cli.Events()
	c.Assert(err, qt.IsNil)
	byType := map[string]int{}
	for _, e := range events {
		byType[e.Type]++
	}
	c.Assert(byType[types.EventSecretSet], qt.Equals, 1)
	c.Assert(byType[types.EventVoterRegistered], qt.Equals, 3)
	c.Assert(byType[types.EventVoteCast], qt.Equals, 3)
	c.Assert(byType[types.EventVoteValidated], qt.Equals, 2)
	c.Assert(byType[types.EventVoterRemoved], qt.Equals, 1)
	c.Assert(byType[types.EventRevoteStarted], qt.Equals, 1)
}

// TestUnauthorizedCallers checks that administrative operations reject
// signatures from anyone but the authority.
func TestUnauthorizedCallers(t *testing.T) {
	c := qt.New(t)
	env := newEnv(t)
	stranger := newVoter(t)

	c.Assert(env.cli.SetSecret(stranger, types.FromBigInt(big.NewInt(7))), qt.IsNotNil)
	c.Assert(env.cli.SetSecret(env.authority, types.FromBigInt(big.NewInt(7))), qt.IsNil)
	c.Assert(env.cli.RegisterVoter(stranger, stranger.Address(), types.FromBigInt(big.NewInt(5))), qt.IsNotNil)

	env.clock.Advance(2 * time.Hour)
	_, _, err := env.cli.RunValidation(stranger)
	c.Assert(err, qt.IsNotNil)
	_, err = env.cli.InitiateRevote(stranger)
	c.Assert(err, qt.IsNotNil)
}

// Package tests runs the voting box end to end: a real API server over a
// real database, exercised through the HTTP client.
package tests

import (
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/voteledger/ballotbox/api"
	"github.com/voteledger/ballotbox/api/client"
	"github.com/voteledger/ballotbox/crypto/ethereum"
	"github.com/voteledger/ballotbox/ledger"
	"github.com/voteledger/ballotbox/proof"
	"github.com/voteledger/ballotbox/storage"
)

// clock is a mutable test clock shared between the ledger and the test body.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	cli       *client.HTTPclient
	authority *ethereum.SignKeys
	clock     *clock
}

// newEnv starts a voting box API on a random localhost port and connects a
// client to it. The election deadline is one hour after the test clock start.
func newEnv(t *testing.T) *env {
	c := qt.New(t)
	authority := ethereum.NewSignKeys()
	c.Assert(authority.Generate(), qt.IsNil)

	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	led, err := ledger.New(storage.New(metadb.NewTest(t)), ledger.Config{
		Authority: authority.Address(),
		Deadline:  clk.Now().Add(time.Hour),
		Verifier:  proof.NewStatic(true),
		Now:       clk.Now,
	})
	c.Assert(err, qt.IsNil)

	// port 0 lets the OS assign a free port, read back from the listener
	a, err := api.New(&api.APIConfig{
		Host:   "127.0.0.1",
		Port:   0,
		Ledger: led,
	})
	c.Assert(err, qt.IsNil)

	cli, err := client.New("http://" + a.Addr())
	c.Assert(err, qt.IsNil)
	return &env{cli: cli, authority: authority, clock: clk}
}

func newVoter(t *testing.T) *ethereum.SignKeys {
	c := qt.New(t)
	k := ethereum.NewSignKeys()
	c.Assert(k.Generate(), qt.IsNil)
	return k
}

package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/voteledger/ballotbox/api"
	"github.com/voteledger/ballotbox/crypto/ethereum"
	"github.com/voteledger/ballotbox/types"
)

// SetSecret sets the voting box secret, signing as the given keys.
func (c *HTTPclient) SetSecret(signer *ethereum.SignKeys, secret *types.BigInt) error {
	signature, err := signer.SignEthereum(api.SecretMessage(secret.String()))
	if err != nil {
		return err
	}
	return c.post(&api.SecretRequest{Secret: secret, Signature: signature}, nil, api.SecretEndpoint)
}

// RegisterVoter registers the given address, signing as the given keys.
func (c *HTTPclient) RegisterVoter(signer *ethereum.SignKeys, addr common.Address, publicKey *types.BigInt) error {
	signature, err := signer.SignEthereum(api.RegisterMessage(addr.Hex(), publicKey.String()))
	if err != nil {
		return err
	}
	return c.post(&api.RegisterRequest{
		Address:   addr.Bytes(),
		PublicKey: publicKey,
		Signature: signature,
	}, nil, api.VotersEndpoint)
}

// CastVote casts a vote as the signing voter.
func (c *HTTPclient) CastVote(signer *ethereum.SignKeys, encryptedVote *types.BigInt, proof types.HexBytes) error {
	return c.sendVote(signer, encryptedVote, proof, api.VotesEndpoint)
}

// RecastVote re-submits the already cast vote of the signing voter.
func (c *HTTPclient) RecastVote(signer *ethereum.SignKeys, encryptedVote *types.BigInt, proof types.HexBytes) error {
	return c.sendVote(signer, encryptedVote, proof, api.VoteRecastEndpoint)
}

func (c *HTTPclient) sendVote(signer *ethereum.SignKeys, encryptedVote *types.BigInt, proof types.HexBytes, endpoint string) error {
	signature, err := signer.SignEthereum(api.CastMessage(encryptedVote.String(), proof.String()))
	if err != nil {
		return err
	}
	return c.post(&api.VoteRequest{
		EncryptedVote: encryptedVote,
		Proof:         proof,
		Signature:     signature,
	}, nil, endpoint)
}

// RunValidation triggers the validation pass and returns its tally.
func (c *HTTPclient) RunValidation(signer *ethereum.SignKeys) (valid, invalid int, err error) {
	signature, err := signer.SignEthereum(api.ValidateMessage())
	if err != nil {
		return 0, 0, err
	}
	summary := struct {
		Valid   int `json:"valid"`
		Invalid int `json:"invalid"`
	}{}
	if err := c.post(&api.AdminRequest{Signature: signature}, &summary, api.ValidationEndpoint); err != nil {
		return 0, 0, err
	}
	return summary.Valid, summary.Invalid, nil
}

// InitiateRevote starts the revote recovery and returns the purge count.
func (c *HTTPclient) InitiateRevote(signer *ethereum.SignKeys) (int, error) {
	signature, err := signer.SignEthereum(api.RevoteMessage())
	if err != nil {
		return 0, err
	}
	resp := &api.RevoteResponse{}
	if err := c.post(&api.AdminRequest{Signature: signature}, resp, api.RevoteEndpoint); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// VoterCount returns the number of currently registered voters.
func (c *HTTPclient) VoterCount() (int, error) {
	resp := &api.CountResponse{}
	if err := c.get(resp, api.VoterCountEndpoint); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Voter returns the registration record of the given address.
func (c *HTTPclient) Voter(addr common.Address) (*types.Voter, error) {
	voter := &types.Voter{}
	if err := c.get(voter, api.VotersEndpoint, addr.Hex()); err != nil {
		return nil, err
	}
	return voter, nil
}

// Vote returns the stored vote of the given address.
func (c *HTTPclient) Vote(addr common.Address) (*types.Vote, error) {
	vote := &types.Vote{}
	if err := c.get(vote, api.VotesEndpoint, addr.Hex()); err != nil {
		return nil, err
	}
	return vote, nil
}

// Phase returns the current election phase.
func (c *HTTPclient) Phase() (string, error) {
	resp := &api.PhaseResponse{}
	if err := c.get(resp, api.PhaseEndpoint); err != nil {
		return "", err
	}
	return resp.Phase, nil
}

// Events replays the audit journal.
func (c *HTTPclient) Events() ([]*types.Event, error) {
	var events []*types.Event
	if err := c.get(&events, api.EventsEndpoint); err != nil {
		return nil, err
	}
	return events, nil
}

// Root returns the audit tree root.
func (c *HTTPclient) Root() (types.HexBytes, error) {
	resp := &api.RootResponse{}
	if err := c.get(resp, api.RootEndpoint); err != nil {
		return nil, err
	}
	return resp.Root, nil
}

func (c *HTTPclient) post(body, out any, urlPath ...string) error {
	data, status, err := c.Request(HTTPPOST, body, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func (c *HTTPclient) get(out any, urlPath ...string) error {
	data, status, err := c.Request(HTTPGET, nil, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return json.Unmarshal(data, out)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/crypto/ethereum"
)

// castVote casts the vote of the signing voter
// POST /votes
func (a *API) castVote(w http.ResponseWriter, r *http.Request) {
	req, caller, apiErr := a.decodeVoteRequest(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	if err := a.ledger.CastVote(caller, req.EncryptedVote.MathBigInt(), req.Proof); err != nil {
		ledgerError(err).Write(w)
		return
	}
	log.Infow("vote cast", "address", caller.Hex())
	httpWriteOK(w)
}

// recastVote re-submits the already cast vote of the signing voter
// POST /votes/recast
func (a *API) recastVote(w http.ResponseWriter, r *http.Request) {
	req, caller, apiErr := a.decodeVoteRequest(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	if err := a.ledger.RecastVote(caller, req.EncryptedVote.MathBigInt(), req.Proof); err != nil {
		ledgerError(err).Write(w)
		return
	}
	log.Infow("vote recast", "address", caller.Hex())
	httpWriteOK(w)
}

// vote returns the stored vote of an address
// GET /votes/{address}
func (a *API) vote(w http.ResponseWriter, r *http.Request) {
	addrParam := chi.URLParam(r, VoterURLParam)
	if !common.IsHexAddress(addrParam) {
		ErrMalformedAddress.With(addrParam).Write(w)
		return
	}
	vote, err := a.ledger.VoteOf(common.HexToAddress(addrParam))
	if err != nil {
		ErrResourceNotFound.Write(w)
		return
	}
	httpWriteJSON(w, vote)
}

// decodeVoteRequest decodes a cast/recast body and recovers the voter
// address from its signature.
func (a *API) decodeVoteRequest(r *http.Request) (*VoteRequest, common.Address, *Error) {
	req := &VoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		apiErr := ErrMalformedBody.Withf("could not decode request body: %v", err)
		return nil, common.Address{}, &apiErr
	}
	if req.EncryptedVote == nil {
		apiErr := ErrMalformedBody.With("missing encrypted vote")
		return nil, common.Address{}, &apiErr
	}
	caller, err := ethereum.AddrFromSignature(
		CastMessage(req.EncryptedVote.String(), req.Proof.String()), req.Signature)
	if err != nil {
		apiErr := ErrInvalidSignature.WithErr(err)
		return nil, common.Address{}, &apiErr
	}
	return req, caller, nil
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/crypto/ethereum"
)

// registerVoter registers a new voter address
// POST /voters
func (a *API) registerVoter(w http.ResponseWriter, r *http.Request) {
	req := &RegisterRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if len(req.Address) != common.AddressLength {
		ErrMalformedAddress.Withf("expected %d bytes, got %d", common.AddressLength, len(req.Address)).Write(w)
		return
	}
	if req.PublicKey == nil {
		ErrMalformedBody.With("missing public key").Write(w)
		return
	}
	addr := common.BytesToAddress(req.Address)
	caller, err := ethereum.AddrFromSignature(
		RegisterMessage(addr.Hex(), req.PublicKey.String()), req.Signature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return
	}
	if err := a.ledger.Register(caller, addr, req.PublicKey.MathBigInt()); err != nil {
		ledgerError(err).Write(w)
		return
	}
	log.Infow("voter registered", "address", addr.Hex())
	httpWriteOK(w)
}

// voterCount returns the number of currently registered voters
// GET /voters/count
func (a *API) voterCount(w http.ResponseWriter, _ *http.Request) {
	count, err := a.ledger.Count()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &CountResponse{Count: count})
}

// voter returns the registration record of an address
// GET /voters/{address}
func (a *API) voter(w http.ResponseWriter, r *http.Request) {
	addrParam := chi.URLParam(r, VoterURLParam)
	if !common.IsHexAddress(addrParam) {
		ErrMalformedAddress.With(addrParam).Write(w)
		return
	}
	voter, err := a.ledger.Voter(common.HexToAddress(addrParam))
	if err != nil {
		ErrNotRegistered.Write(w)
		return
	}
	httpWriteJSON(w, voter)
}

package api

import (
	"encoding/json"
	"net/http"

	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/crypto/ethereum"
)

// setSecret stores the one-time voting box secret
// POST /secret
func (a *API) setSecret(w http.ResponseWriter, r *http.Request) {
	req := &SecretRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Secret == nil {
		ErrMalformedBody.With("missing secret").Write(w)
		return
	}
	caller, err := ethereum.AddrFromSignature(SecretMessage(req.Secret.String()), req.Signature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return
	}
	if err := a.ledger.SetSecret(caller, req.Secret.MathBigInt()); err != nil {
		ledgerError(err).Write(w)
		return
	}
	log.Infow("secret set", "caller", caller.Hex())
	httpWriteOK(w)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/crypto/ethereum"
	"github.com/voteledger/ballotbox/types"
)

// adminCaller decodes a signature-only administrative body and recovers the
// caller address from its signature over message.
func (a *API) adminCaller(r *http.Request, message []byte) (common.Address, *Error) {
	req := &AdminRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		apiErr := ErrMalformedBody.Withf("could not decode request body: %v", err)
		return common.Address{}, &apiErr
	}
	caller, err := ethereum.AddrFromSignature(message, req.Signature)
	if err != nil {
		apiErr := ErrInvalidSignature.WithErr(err)
		return common.Address{}, &apiErr
	}
	return caller, nil
}

// phase returns the current election phase and the deadline
// GET /phase
func (a *API) phase(w http.ResponseWriter, _ *http.Request) {
	httpWriteJSON(w, &PhaseResponse{
		Phase:    a.ledger.Phase().String(),
		Deadline: a.ledger.Deadline(),
	})
}

// runValidation settles the validity of every stored vote
// POST /validation
func (a *API) runValidation(w http.ResponseWriter, r *http.Request) {
	caller, apiErr := a.adminCaller(r, ValidateMessage())
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	summary, err := a.ledger.ValidateAll(caller)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	log.Infow("validation completed", "valid", summary.Valid, "invalid", summary.Invalid)
	httpWriteJSON(w, summary)
}

// initiateRevote purges the registered voters that did not cast
// POST /revote
func (a *API) initiateRevote(w http.ResponseWriter, r *http.Request) {
	caller, apiErr := a.adminCaller(r, RevoteMessage())
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	removed, err := a.ledger.InitiateRevote(caller)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	log.Infow("revote started", "removed", removed)
	httpWriteJSON(w, &RevoteResponse{Removed: removed})
}

// events replays the audit journal
// GET /events
func (a *API) events(w http.ResponseWriter, _ *http.Request) {
	events, err := a.ledger.Events()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if events == nil {
		events = []*types.Event{}
	}
	httpWriteJSON(w, events)
}

// auditRoot returns the current audit tree root
// GET /root
func (a *API) auditRoot(w http.ResponseWriter, _ *http.Request) {
	root, err := a.ledger.Root()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &RootResponse{Root: root})
}

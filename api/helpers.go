package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/ledger"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	if _, err := w.Write(jdata); err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// ledgerError maps a ledger precondition failure to its API error.
func ledgerError(err error) Error {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return ErrUnauthorized
	case errors.Is(err, ledger.ErrPhaseViolation):
		return ErrPhaseViolation
	case errors.Is(err, ledger.ErrSecretNotSet):
		return ErrSecretNotSet
	case errors.Is(err, ledger.ErrAlreadySet):
		return ErrSecretAlreadySet
	case errors.Is(err, ledger.ErrAlreadyRegistered):
		return ErrAlreadyRegistered
	case errors.Is(err, ledger.ErrNotRegistered):
		return ErrNotRegistered
	case errors.Is(err, ledger.ErrAlreadyVoted):
		return ErrAlreadyVoted
	case errors.Is(err, ledger.ErrVoteMismatch):
		return ErrVoteMismatch
	}
	return ErrGenericInternalServerError.WithErr(err)
}

// Signed message builders. Every mutating request carries a signature over
// the canonical message for its operation; server and clients must agree on
// these exact bytes.

func signedMessage(parts ...string) []byte {
	return []byte(strings.Join(parts, ":"))
}

// SecretMessage is the message signed by the authority to set the secret.
func SecretMessage(secret string) []byte {
	return signedMessage("setsecret", secret)
}

// RegisterMessage is the message signed by the authority to register addr.
func RegisterMessage(addr, publicKey string) []byte {
	return signedMessage("register", strings.ToLower(addr), publicKey)
}

// CastMessage is the message signed by a voter to cast or recast a vote.
func CastMessage(encryptedVote, proof string) []byte {
	return signedMessage("cast", encryptedVote, proof)
}

// ValidateMessage is the message signed by the authority to run validation.
func ValidateMessage() []byte {
	return signedMessage("validate")
}

// RevoteMessage is the message signed by the authority to start a revote.
func RevoteMessage() []byte {
	return signedMessage("revote")
}

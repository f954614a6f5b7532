//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 401, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap, DON'T fill it in, that code was used in the past and shouldn't be reused.
var (
	ErrResourceNotFound = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody    = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedAddress = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}

	ErrUnauthorized      = Error{Code: 40101, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("caller is not the authority")}
	ErrPhaseViolation    = Error{Code: 40102, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("operation not allowed in current phase")}
	ErrSecretNotSet      = Error{Code: 40103, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voting box secret not set")}
	ErrSecretAlreadySet  = Error{Code: 40104, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voting box secret already set")}
	ErrAlreadyRegistered = Error{Code: 40105, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("address already registered")}
	ErrNotRegistered     = Error{Code: 40106, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("address not registered")}
	ErrAlreadyVoted      = Error{Code: 40107, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("address already voted")}
	ErrVoteMismatch      = Error{Code: 40108, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("recast ciphertext does not match stored vote")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)

// Package proof defines the external vote-proof verification capability.
//
// The verifier contract is strictly boolean and total: any malformed,
// unparsable or failing proof surfaces as false, never as an error. The
// ledger consumes the result without knowing anything about the proof
// system behind it, so implementations can be swapped without touching the
// state machine.
package proof

// Verifier checks a vote proof blob. Verify is pure and must not fail:
// rejection of any kind is reported as false.
type Verifier interface {
	Verify(proof []byte) bool
}

// Static is a verifier with a fixed outcome. It exists for development and
// tests, and mirrors deployments that defer proof checking entirely. It must
// never be wired as an implicit default.
type Static struct {
	Result bool
}

// NewStatic returns a verifier that always reports the given result.
func NewStatic(result bool) *Static {
	return &Static{Result: result}
}

// Verify returns the fixed result, ignoring the proof.
func (s *Static) Verify(_ []byte) bool {
	return s.Result
}

package proof

import (
	"encoding/json"

	"github.com/vocdoni/circom2gnark/parser"
	"go.vocdoni.io/dvote/log"
)

// circomEnvelope is the wire format of a circom proof blob: the proof and
// the public signals as produced by snarkjs.
type circomEnvelope struct {
	Proof         json.RawMessage `json:"proof"`
	PublicSignals json.RawMessage `json:"publicSignals"`
}

// Circom verifies snarkjs/circom Groth16 proofs against a fixed circom
// verification key, by converting them to the gnark format first.
type Circom struct {
	vk *parser.CircomVerificationKey
}

// NewCircom parses the circom verification key JSON (as written by snarkjs)
// and returns the verifier.
func NewCircom(vkey []byte) (*Circom, error) {
	vk, err := parser.UnmarshalCircomVerificationKeyJSON(vkey)
	if err != nil {
		return nil, err
	}
	return &Circom{vk: vk}, nil
}

// Verify checks the proof blob against the verification key. Any decoding,
// conversion or verification failure is reported as false.
func (c *Circom) Verify(blob []byte) bool {
	envelope := &circomEnvelope{}
	if err := json.Unmarshal(blob, envelope); err != nil {
		log.Debugw("malformed circom proof blob", "error", err)
		return false
	}
	proofData, err := parser.UnmarshalCircomProofJSON(envelope.Proof)
	if err != nil {
		log.Debugw("cannot parse circom proof", "error", err)
		return false
	}
	pubSignals, err := parser.UnmarshalCircomPublicSignalsJSON(envelope.PublicSignals)
	if err != nil {
		log.Debugw("cannot parse circom public signals", "error", err)
		return false
	}
	gnarkProof, err := parser.ConvertCircomToGnark(proofData, c.vk, pubSignals)
	if err != nil {
		log.Debugw("cannot convert circom proof", "error", err)
		return false
	}
	ok, err := parser.VerifyProof(gnarkProof)
	if err != nil {
		log.Debugw("circom proof verification failed", "error", err)
		return false
	}
	return ok
}

package proof

import (
	"bytes"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/log"
)

// groth16Envelope is the wire format of a native gnark proof blob: the
// serialized proof plus the serialized public witness it was produced for.
type groth16Envelope struct {
	Proof         []byte `json:"proof"`
	PublicWitness []byte `json:"publicWitness"`
}

// Groth16 verifies native gnark Groth16 proofs over BN254 against a fixed
// verification key.
type Groth16 struct {
	vk groth16.VerifyingKey
}

// NewGroth16 parses the serialized verification key and returns the verifier.
func NewGroth16(vkey []byte) (*Groth16, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkey)); err != nil {
		return nil, err
	}
	return &Groth16{vk: vk}, nil
}

// Verify checks the proof blob against the verification key. Any decoding or
// verification failure is reported as false.
func (g *Groth16) Verify(blob []byte) bool {
	envelope := &groth16Envelope{}
	if err := cbor.Unmarshal(blob, envelope); err != nil {
		log.Debugw("malformed groth16 proof blob", "error", err)
		return false
	}
	p := groth16.NewProof(ecc.BN254)
	if _, err := p.ReadFrom(bytes.NewReader(envelope.Proof)); err != nil {
		log.Debugw("cannot read groth16 proof", "error", err)
		return false
	}
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		log.Debugw("cannot create witness", "error", err)
		return false
	}
	if err := w.UnmarshalBinary(envelope.PublicWitness); err != nil {
		log.Debugw("cannot read public witness", "error", err)
		return false
	}
	if err := groth16.Verify(p, g.vk, w); err != nil {
		log.Debugw("groth16 proof rejected", "error", err)
		return false
	}
	return true
}

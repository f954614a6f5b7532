// Package ethereum provides secp256k1 signing keys and Ethereum-style
// personal-message signatures, used by the HTTP API to authenticate callers.
package ethereum

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/voteledger/ballotbox/util"
)

// SigningPrefix is the prefix prepended to messages before hashing, as
// defined by the Ethereum personal_sign convention.
const SigningPrefix = "\u0019Ethereum Signed Message:\n"

// SignatureLength is the size in bytes of an [R || S || V] signature.
const SignatureLength = 65

// SignKeys holds an ECDSA keypair over secp256k1.
type SignKeys struct {
	Private *ecdsa.PrivateKey
}

// NewSignKeys creates an empty SignKeys. Call Generate or AddHexKey to
// populate it.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate creates a fresh random keypair.
func (k *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.Private = key
	return nil
}

// AddHexKey imports a private key from its hex representation.
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(util.TrimHex(privHex))
	if err != nil {
		return err
	}
	k.Private = key
	return nil
}

// HexString returns the compressed public key and the private key as hex
// strings, without the "0x" prefix.
func (k *SignKeys) HexString() (string, string) {
	pub := ethcrypto.CompressPubkey(&k.Private.PublicKey)
	priv := ethcrypto.FromECDSA(k.Private)
	return hex.EncodeToString(pub), hex.EncodeToString(priv)
}

// Address returns the Ethereum address derived from the public key.
func (k *SignKeys) Address() common.Address {
	return ethcrypto.PubkeyToAddress(k.Private.PublicKey)
}

// SignEthereum signs the message following the Ethereum personal-message
// convention. Returns the 65-byte [R || S || V] signature with V in {0,1}.
func (k *SignKeys) SignEthereum(message []byte) ([]byte, error) {
	if k.Private == nil {
		return nil, fmt.Errorf("no private key available")
	}
	return ethcrypto.Sign(Hash(message), k.Private)
}

// Hash prefixes the message with SigningPrefix and its length, then hashes
// it with keccak256.
func Hash(message []byte) []byte {
	prefixed := fmt.Sprintf("%s%d%s", SigningPrefix, len(message), message)
	return HashRaw([]byte(prefixed))
}

// HashRaw hashes data with keccak256, without any prefix.
func HashRaw(data []byte) []byte {
	return ethcrypto.Keccak256(data)
}

// AddrFromSignature recovers the address that produced the given
// personal-message signature over message.
func AddrFromSignature(message, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(signature))
	}
	// accept both the raw {0,1} and the Ethereum {27,28} recovery id
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(Hash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot recover public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

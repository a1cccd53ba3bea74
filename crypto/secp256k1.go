// Package crypto provides the recoverable-signature Signer/Verifier this
// module's authority check needs (chaintypes.Verifier.RecoverKey): given
// only a digest and a signature, recover the public key that produced it,
// the same way this lineage's wallet/account code (pkg/wallet/account/key.go)
// derives secp256k1 keys through github.com/ethereum/go-ethereum/crypto
// rather than rolling its own curve math.
package crypto

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

// InMemorySigner holds a secp256k1 private key in process memory, for a
// producer node that signs its own blocks locally.
type InMemorySigner struct {
	key *ecdsa.PrivateKey
}

func NewSigner() (*InMemorySigner, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: generating key: %w", err)
	}
	return &InMemorySigner{key: key}, nil
}

// NewSignerFromBytes reconstructs a signer from a saved 32-byte private
// key, the way a producer node loads its key from disk on restart.
func NewSignerFromBytes(raw []byte) (*InMemorySigner, error) {
	key, err := ethcrypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("crypto: decoding private key: %w", err)
	}
	return &InMemorySigner{key: key}, nil
}

// Sign produces a 65-byte recoverable ECDSA signature (R || S || V) over
// a 32-byte digest.
func (s *InMemorySigner) Sign(digest []byte) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("crypto: nil signer")
	}
	sig, err := ethcrypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("crypto: signing: %w", err)
	}
	return sig, nil
}

// PublicKey returns the uncompressed public key bytes.
func (s *InMemorySigner) PublicKey() []byte {
	return ethcrypto.FromECDSAPub(&s.key.PublicKey)
}

// Bytes returns the raw private key, for callers that need to persist it.
func (s *InMemorySigner) Bytes() []byte { return ethcrypto.FromECDSA(s.key) }

// Verifier is the shared, stateless secp256k1 verifier: it carries no key
// of its own, since the chain controller checks many different producers'
// and accounts' signatures against one Verifier instance (chaintypes.Verifier).
type Verifier struct{}

func NewVerifier() *Verifier { return &Verifier{} }

var _ chaintypes.Verifier = (*Verifier)(nil)

func (v *Verifier) Verify(pubKey, digest, sig []byte) error {
	// Signatures carry a trailing recovery byte; VerifySignature wants the
	// 64-byte R||S form only.
	s := sig
	if len(s) == 65 {
		s = s[:64]
	}
	if !ethcrypto.VerifySignature(pubKey, digest, s) {
		return fmt.Errorf("crypto: signature verification failed")
	}
	return nil
}

func (v *Verifier) RecoverKey(digest, sig []byte) ([]byte, error) {
	pub, err := ethcrypto.Ecrecover(digest, sig)
	if err != nil {
		return nil, fmt.Errorf("crypto: recovering public key: %w", err)
	}
	return pub, nil
}

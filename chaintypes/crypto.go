package chaintypes

// Verifier is the read-only half of the cryptographic primitives this
// module consumes (§1: out of scope as functionality). The controller never
// implements signature math itself; it calls Verify to check a block or
// transaction signature against a known key, and RecoverKey when the
// authority check (§4.4 stage 6) must map an unknown signature to whichever
// key produced it.
type Verifier interface {
	Verify(pubKey, digest, sig []byte) error
	RecoverKey(digest, sig []byte) ([]byte, error)
}

// Signer produces a signature over a digest. It is consumed only by
// generate_block to finalize a locally-produced candidate block; the core
// never signs on behalf of a remote party.
type Signer interface {
	Sign(digest []byte) ([]byte, error)
	PublicKey() []byte
}

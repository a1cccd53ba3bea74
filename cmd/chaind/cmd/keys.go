package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/chaincorelabs/dposchain/crypto"
)

const keyAlgorithm = "secp256k1"

// keyFile mirrors this lineage's own keys.json shape (cli/alphabill/cmd
// keys.go): an algorithm tag next to the hex-encoded private key, so a
// future algorithm change fails loudly on mismatch rather than silently
// misinterpreting old bytes.
type keyFile struct {
	Algorithm  string `json:"algorithm"`
	PrivateKey string `json:"privateKey"`
}

// loadOrGenerateSigner reads path's key file, creating a fresh one if it
// does not exist yet.
func loadOrGenerateSigner(path string) (*crypto.InMemorySigner, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		signer, genErr := crypto.NewSigner()
		if genErr != nil {
			return nil, fmt.Errorf("generating producer key: %w", genErr)
		}
		if err := writeKeyFile(path, signer); err != nil {
			return nil, err
		}
		return signer, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading key file %s: %w", path, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("decoding key file %s: %w", path, err)
	}
	if kf.Algorithm != keyAlgorithm {
		return nil, fmt.Errorf("key file %s: unsupported algorithm %q", path, kf.Algorithm)
	}
	raw, err := hexutil.Decode(kf.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("key file %s: decoding private key: %w", path, err)
	}
	return crypto.NewSignerFromBytes(raw)
}

func writeKeyFile(path string, signer *crypto.InMemorySigner) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating key file directory: %w", err)
	}
	kf := keyFile{Algorithm: keyAlgorithm, PrivateKey: hexutil.Encode(signer.Bytes())}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing key file %s: %w", path, err)
	}
	return nil
}

package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateSigner_GeneratesAndPersistsOnFirstCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "producer.json")

	signer, err := loadOrGenerateSigner(path)
	require.NoError(t, err)
	require.NotNil(t, signer)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var kf keyFile
	require.NoError(t, json.Unmarshal(data, &kf))
	require.Equal(t, keyAlgorithm, kf.Algorithm)
}

func TestLoadOrGenerateSigner_ReloadsSameKeyOnSubsequentCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "producer.json")

	first, err := loadOrGenerateSigner(path)
	require.NoError(t, err)

	second, err := loadOrGenerateSigner(path)
	require.NoError(t, err)

	require.Equal(t, first.PublicKey(), second.PublicKey())
	require.Equal(t, first.Bytes(), second.Bytes())
}

func TestLoadOrGenerateSigner_RejectsUnsupportedAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "producer.json")
	kf := keyFile{Algorithm: "ed25519", PrivateKey: "0xdeadbeef"}
	data, err := json.Marshal(kf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	_, err = loadOrGenerateSigner(path)
	require.Error(t, err)
}

func TestLoadOrGenerateSigner_RejectsMalformedHexKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "producer.json")
	kf := keyFile{Algorithm: keyAlgorithm, PrivateKey: "not-hex"}
	data, err := json.Marshal(kf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	_, err = loadOrGenerateSigner(path)
	require.Error(t, err)
}

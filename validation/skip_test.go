package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipFlags_Has(t *testing.T) {
	f := SkipTaposCheck | SkipAuthorityCheck
	require.True(t, f.Has(SkipTaposCheck))
	require.True(t, f.Has(SkipAuthorityCheck))
	require.False(t, f.Has(SkipMerkleCheck))
}

func TestReplaySkip_CoversExpectedChecks(t *testing.T) {
	require.True(t, ReplaySkip.Has(SkipProducerSignature))
	require.True(t, ReplaySkip.Has(SkipTransactionSignatures))
	require.True(t, ReplaySkip.Has(SkipTaposCheck))
	require.True(t, ReplaySkip.Has(SkipAuthorityCheck))
	require.True(t, ReplaySkip.Has(SkipUndoHistoryCheck))
	require.True(t, ReplaySkip.Has(SkipMerkleCheck))

	require.False(t, ReplaySkip.Has(SkipBlockSizeCheck), "block size still must be enforced on replay")
	require.False(t, ReplaySkip.Has(SkipTransactionDupeCheck), "dupe check still runs on replay")
}

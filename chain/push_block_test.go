package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

func TestPushBlock_FastPathAppliesAndAdvancesHead(t *testing.T) {
	c, keys := newHarness(t, "alice", "bob")
	blk := buildSignedBlock(t, c.HeadBlockID(), keys[0], testStartTime.Add(testBlockInterval), nil)

	applied, err := c.PushBlock(blk, 0)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, uint32(1), c.HeadBlockNumber())
}

func TestPushBlock_KnownBlockIsNoop(t *testing.T) {
	c, keys := newHarness(t, "alice", "bob")
	blk := buildSignedBlock(t, c.HeadBlockID(), keys[0], testStartTime.Add(testBlockInterval), nil)

	_, err := c.PushBlock(blk, 0)
	require.NoError(t, err)

	applied, err := c.PushBlock(blk, 0)
	require.NoError(t, err)
	require.False(t, applied)
}

func TestPushBlock_ReorgSwitchesToHeavierFork(t *testing.T) {
	c, keys := newHarness(t, "alice", "bob")
	t1 := testStartTime.Add(testBlockInterval)
	t2 := testStartTime.Add(2 * testBlockInterval)
	t3 := testStartTime.Add(3 * testBlockInterval)

	blockA1 := buildSignedBlock(t, chaintypes.NullBlockID, keys[0], t1, nil)
	_, err := c.PushBlock(blockA1, 0)
	require.NoError(t, err)

	blockB1 := buildSignedBlock(t, chaintypes.NullBlockID, keys[1], t2, nil)
	idB1, err := chaintypes.ComputeBlockID(&blockB1.Header)
	require.NoError(t, err)
	_, err = c.PushBlock(blockB1, 0)
	require.NoError(t, err)

	blockB2 := buildSignedBlock(t, idB1, keys[0], t3, nil)
	idB2, err := chaintypes.ComputeBlockID(&blockB2.Header)
	require.NoError(t, err)

	applied, err := c.PushBlock(blockB2, 0)
	require.NoError(t, err)
	require.True(t, applied)

	require.Equal(t, idB2, c.HeadBlockID())
	require.Equal(t, uint32(2), c.HeadBlockNumber())
}

func TestPopBlock_RevertsToParentDynamicProperties(t *testing.T) {
	c, keys := newHarness(t, "alice", "bob")
	priorTime := c.HeadBlockTime()
	blk := buildSignedBlock(t, c.HeadBlockID(), keys[0], testStartTime.Add(testBlockInterval), nil)

	_, err := c.PushBlock(blk, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), c.HeadBlockNumber())

	require.NoError(t, c.PopBlock())
	require.Equal(t, uint32(0), c.HeadBlockNumber())
	require.True(t, c.HeadBlockTime().Equal(priorTime))
}

func TestPopBlock_ErrorsWithNoReversibleBlock(t *testing.T) {
	c, _ := newHarness(t, "alice", "bob")
	require.Error(t, c.PopBlock())
}

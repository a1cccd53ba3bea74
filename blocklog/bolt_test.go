package blocklog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

func openTestLog(t *testing.T) *BoltLog {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "blocks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func blockWithParentNum(num uint32) *chaintypes.SignedBlock {
	return &chaintypes.SignedBlock{Header: chaintypes.BlockHeader{ParentID: chaintypes.MakeBlockID(num, nil)}}
}

func TestAppendReadBlock_RoundTrip(t *testing.T) {
	l := openTestLog(t)
	b := blockWithParentNum(0)
	require.NoError(t, l.Append(b))

	got, err := l.ReadBlock(1)
	require.NoError(t, err)
	require.Equal(t, b.Header.ParentID, got.Header.ParentID)
}

func TestReadBlock_MissingErrors(t *testing.T) {
	l := openTestLog(t)
	_, err := l.ReadBlock(1)
	require.Error(t, err)
}

func TestHead_TracksHighestAppendedNumber(t *testing.T) {
	l := openTestLog(t)
	require.Equal(t, uint32(0), l.Head())

	require.NoError(t, l.Append(blockWithParentNum(0)))
	require.Equal(t, uint32(1), l.Head())

	require.NoError(t, l.Append(blockWithParentNum(1)))
	require.Equal(t, uint32(2), l.Head())
}

func TestAppend_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(blockWithParentNum(0)))
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, uint32(1), reopened.Head())
	_, err = reopened.ReadBlock(1)
	require.NoError(t, err)
}

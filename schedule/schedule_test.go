package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

func acct(t *testing.T, s string) chaintypes.AccountName {
	t.Helper()
	a, err := chaintypes.NewAccountName(s)
	require.NoError(t, err)
	return a
}

func TestScheduledProducer_RotatesAndWraps(t *testing.T) {
	a, b, c := acct(t, "a"), acct(t, "b"), acct(t, "c")
	s := New([]chaintypes.AccountName{a, b, c})

	require.Equal(t, a, s.ScheduledProducer(1))
	require.Equal(t, b, s.ScheduledProducer(2))
	require.Equal(t, c, s.ScheduledProducer(3))
	require.Equal(t, a, s.ScheduledProducer(4), "slot numbering must wrap back to the start of the round")
}

func TestScheduledProducer_SlotZeroIsNull(t *testing.T) {
	s := New([]chaintypes.AccountName{acct(t, "a")})
	require.Equal(t, chaintypes.NullAccount, s.ScheduledProducer(0))
}

func TestScheduledProducer_EmptyRoundIsNull(t *testing.T) {
	s := New(nil)
	require.Equal(t, chaintypes.NullAccount, s.ScheduledProducer(1))
}

func TestIndexOf(t *testing.T) {
	a, b := acct(t, "a"), acct(t, "b")
	s := New([]chaintypes.AccountName{a, b})
	require.Equal(t, 0, s.IndexOf(a))
	require.Equal(t, 1, s.IndexOf(b))
	require.Equal(t, -1, s.IndexOf(acct(t, "c")))
}

func TestUpdateFromVotes_RanksByVotesDescending(t *testing.T) {
	s := New(nil)
	candidates := []chaintypes.Producer{
		{Owner: acct(t, "low"), TotalVotes: 1},
		{Owner: acct(t, "high"), TotalVotes: 100},
		{Owner: acct(t, "mid"), TotalVotes: 50},
	}
	require.NoError(t, s.UpdateFromVotes(candidates, chaintypes.BlockID{}))
	require.Equal(t, 3, s.Len())

	// The round membership must be exactly the ranked candidates, though the
	// deterministic shuffle may reorder them within the round.
	round := s.Round()
	require.ElementsMatch(t, []chaintypes.AccountName{acct(t, "low"), acct(t, "high"), acct(t, "mid")}, round)
}

func TestUpdateFromVotes_TiesBrokenByName(t *testing.T) {
	s := New(nil)
	candidates := []chaintypes.Producer{
		{Owner: acct(t, "zzz"), TotalVotes: 10},
		{Owner: acct(t, "aaa"), TotalVotes: 10},
	}
	require.NoError(t, s.UpdateFromVotes(candidates, chaintypes.BlockID{}))
	require.Equal(t, 2, s.Len())
}

func TestUpdateFromVotes_EmptyCandidatesErrors(t *testing.T) {
	s := New(nil)
	require.Error(t, s.UpdateFromVotes(nil, chaintypes.BlockID{}))
}

func TestUpdateFromVotes_DeterministicAcrossInstances(t *testing.T) {
	candidates := []chaintypes.Producer{
		{Owner: acct(t, "a"), TotalVotes: 1},
		{Owner: acct(t, "b"), TotalVotes: 1},
		{Owner: acct(t, "c"), TotalVotes: 1},
		{Owner: acct(t, "d"), TotalVotes: 1},
	}
	seed := chaintypes.MakeBlockID(7, []byte{1, 2, 3})

	s1 := New(nil)
	require.NoError(t, s1.UpdateFromVotes(candidates, seed))
	s2 := New(nil)
	require.NoError(t, s2.UpdateFromVotes(candidates, seed))

	require.Equal(t, s1.Round(), s2.Round(), "the shuffle must be a pure function of the candidate set and seed")
}

func TestUpdateFromVotes_CapsAtProducerCount(t *testing.T) {
	candidates := make([]chaintypes.Producer, ProducerCount+5)
	require.LessOrEqual(t, len(candidates), 26, "test name generator only covers a-z")
	for i := range candidates {
		candidates[i] = chaintypes.Producer{
			Owner:      acct(t, string(rune('a'+i))),
			TotalVotes: uint64(len(candidates) - i),
		}
	}
	s := New(nil)
	require.NoError(t, s.UpdateFromVotes(candidates, chaintypes.BlockID{}))
	require.Equal(t, ProducerCount, s.Len())
}

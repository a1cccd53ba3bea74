// Package schedule implements the producer schedule: the ordered ring of
// producer accounts rotated once per round (§4.2).
package schedule

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

// ProducerCount is the number of producers active in a round. It mirrors
// this lineage's fixed round size; the schedule still works with a smaller
// slice during bring-up (e.g. tests with a handful of producers), it is
// simply not a "full" round until the active set reaches this length.
const ProducerCount = 21

// Schedule holds the current round's ordered producer accounts.
type Schedule struct {
	round []chaintypes.AccountName
}

// New builds a Schedule from an already-ordered round.
func New(round []chaintypes.AccountName) *Schedule {
	s := &Schedule{round: append([]chaintypes.AccountName{}, round...)}
	return s
}

// Len returns the number of producers in the active round.
func (s *Schedule) Len() int { return len(s.round) }

// Round returns a copy of the active round's producer order.
func (s *Schedule) Round() []chaintypes.AccountName {
	return append([]chaintypes.AccountName{}, s.round...)
}

// ScheduledProducer returns the producer scheduled for slotNum. slotNum==0
// returns the null-account sentinel.
func (s *Schedule) ScheduledProducer(slotNum uint32) chaintypes.AccountName {
	if slotNum == 0 || len(s.round) == 0 {
		return chaintypes.NullAccount
	}
	idx := int((slotNum - 1) % uint32(len(s.round)))
	return s.round[idx]
}

// IndexOf returns the position of name in the active round, or -1.
func (s *Schedule) IndexOf(name chaintypes.AccountName) int {
	for i, n := range s.round {
		if n == name {
			return i
		}
	}
	return -1
}

// producerRank pairs a producer with the vote weight used to pick the
// active round's membership.
type producerRank struct {
	Name  chaintypes.AccountName
	Votes uint64
}

// UpdateFromVotes recomputes the active round from the given candidate
// producers (ranked by total votes, descending, ties broken by account
// name) and deterministically shuffles the result, seeded by lastBlockID,
// the id of the final block of the prior round.
//
// The shuffle follows the same id-hash, modulo-reduction idiom this
// lineage's leader-selection code uses for a single leader, generalized to
// a full Fisher-Yates permutation: at step i the seed is re-hashed and
// reduced modulo the remaining slice length to pick the next swap index,
// so the whole permutation is a deterministic function of lastBlockID and
// the candidate set, reproducible by every node without coordination.
func (s *Schedule) UpdateFromVotes(candidates []chaintypes.Producer, lastBlockID chaintypes.BlockID) error {
	if len(candidates) == 0 {
		return fmt.Errorf("schedule: no candidate producers")
	}
	ranked := make([]producerRank, len(candidates))
	for i, p := range candidates {
		ranked[i] = producerRank{Name: p.Owner, Votes: p.TotalVotes}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Votes != ranked[j].Votes {
			return ranked[i].Votes > ranked[j].Votes
		}
		return ranked[i].Name < ranked[j].Name
	})

	n := ProducerCount
	if len(ranked) < n {
		n = len(ranked)
	}
	active := make([]chaintypes.AccountName, n)
	for i := 0; i < n; i++ {
		active[i] = ranked[i].Name
	}

	shuffled := shuffle(active, lastBlockID)
	s.round = shuffled
	return nil
}

// shuffle permutes names deterministically using seed as the Fisher-Yates
// source of randomness: at each step the seed is hashed together with the
// step index and reduced modulo the remaining length.
func shuffle(names []chaintypes.AccountName, seed chaintypes.BlockID) []chaintypes.AccountName {
	out := append([]chaintypes.AccountName{}, names...)
	for i := len(out) - 1; i > 0; i-- {
		j := reduceSeed(seed, uint32(i), uint32(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// reduceSeed derives a deterministic index in [0, mod) from seed and step.
func reduceSeed(seed chaintypes.BlockID, step uint32, mod uint32) uint32 {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], step)
	h := fnv1aSeed(seed, buf[:])
	return h % mod
}

// fnv1aSeed mixes a block id and a step counter into a single uint32 using
// the FNV-1a constants; this is a deterministic, dependency-free hash, not
// a cryptographic one, matching the rest of this function's role as a
// reproducible-but-not-adversarial randomness source.
func fnv1aSeed(id chaintypes.BlockID, extra []byte) uint32 {
	const prime = 16777619
	h := uint32(2166136261)
	for _, b := range id[:] {
		h ^= uint32(b)
		h *= prime
	}
	for _, b := range extra {
		h ^= uint32(b)
		h *= prime
	}
	return h
}

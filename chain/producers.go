package chain

import (
	"fmt"
	"sort"
	"time"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/store"
)

// RegisterProducer installs or replaces a producer candidate object. It is
// exposed for the genesis starter and for native handlers that implement
// producer registration/vote messages; the controller itself never
// originates producer objects. Those callers run inside Bootstrap,
// PushTransaction or PushBlock, which already hold c.mu, so it does not
// take c.mu itself: any other caller must hold it or otherwise have
// exclusive access to the controller.
func (c *Controller) RegisterProducer(p chaintypes.Producer) error {
	return c.registerProducerLocked(p)
}

func (c *Controller) registerProducerLocked(p chaintypes.Producer) error {
	if err := c.registerAccountLocked(p.Owner); err != nil {
		return err
	}
	return store.PutTyped(c.store, chaintypes.ProducerKey(p.Owner), p)
}

func (c *Controller) producerLocked(owner chaintypes.AccountName) (chaintypes.Producer, bool) {
	p, ok, err := store.GetTyped[chaintypes.Producer](c.store, chaintypes.ProducerKey(owner))
	if err != nil {
		return chaintypes.Producer{}, false
	}
	return p, ok
}

func (c *Controller) allProducersLocked() []chaintypes.Producer {
	var out []chaintypes.Producer
	c.store.Iterate(chaintypes.ProducerKeyPrefix(), func(_, value []byte) bool {
		var p chaintypes.Producer
		if err := chaintypes.Unmarshal(value, &p); err == nil {
			out = append(out, p)
		}
		return true
	})
	return out
}

// updateProducerScheduleLocked recomputes the active round from the
// top-voted registered producers (§4.2), seeded by the id of the last
// block of the prior round.
func (c *Controller) updateProducerScheduleLocked(lastBlockOfPriorRound chaintypes.BlockID) error {
	candidates := c.allProducersLocked()
	if len(candidates) == 0 {
		return fmt.Errorf("chain: update_producer_schedule: no registered producers")
	}
	return c.schedule.UpdateFromVotes(candidates, lastBlockOfPriorRound)
}

// updateBlockchainConfigurationLocked recomputes the static configuration
// as the element-wise median of every active producer's latest
// configuration vote (§3 Global static properties, §3.1 Producer vote
// record).
func (c *Controller) updateBlockchainConfigurationLocked() {
	candidates := c.allProducersLocked()
	active := make([]chaintypes.AccountName, 0, len(candidates))
	for _, p := range candidates {
		if c.schedule.IndexOf(p.Owner) >= 0 {
			active = append(active, p.Owner)
		}
	}
	if len(active) == 0 {
		return
	}

	votes := make([]chaintypes.BlockchainConfiguration, 0, len(active))
	for _, name := range active {
		if p, ok := c.producerLocked(name); ok {
			votes = append(votes, p.VotesOnConfiguration)
		}
	}
	if len(votes) == 0 {
		return
	}
	c.static = medianConfiguration(votes)
}

func medianConfiguration(votes []chaintypes.BlockchainConfiguration) chaintypes.BlockchainConfiguration {
	maxBlockSize := make([]uint32, len(votes))
	maxLifetimeNanos := make([]int64, len(votes))
	maxMessages := make([]uint32, len(votes))
	for i, v := range votes {
		maxBlockSize[i] = v.MaxBlockSize
		maxLifetimeNanos[i] = int64(v.MaxTransactionLifetime)
		maxMessages[i] = v.MaxMessagesPerTx
	}
	sort.Slice(maxBlockSize, func(i, j int) bool { return maxBlockSize[i] < maxBlockSize[j] })
	sort.Slice(maxLifetimeNanos, func(i, j int) bool { return maxLifetimeNanos[i] < maxLifetimeNanos[j] })
	sort.Slice(maxMessages, func(i, j int) bool { return maxMessages[i] < maxMessages[j] })

	mid := len(votes) / 2
	return chaintypes.BlockchainConfiguration{
		MaxBlockSize:           maxBlockSize[mid],
		MaxTransactionLifetime: durationFromNanos(maxLifetimeNanos[mid]),
		MaxMessagesPerTx:       maxMessages[mid],
	}
}

func durationFromNanos(n int64) time.Duration { return time.Duration(n) }

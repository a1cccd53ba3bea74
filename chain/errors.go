package chain

import (
	"fmt"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

func errCheckpointMismatch(num uint32, expected, got chaintypes.BlockID) error {
	return fmt.Errorf("block %d: checkpoint expects id %s, got %s", num, expected, got)
}

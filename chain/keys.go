package chain

import (
	"encoding/binary"

	"github.com/chaincorelabs/dposchain/chaintypes"
	"github.com/chaincorelabs/dposchain/handlers"
)

// keyFor resolves the handler registry key a message dispatches to: the
// recipient contract account, the message's scope, and its declared
// action type (§4.3).
func keyFor(msg *chaintypes.Message) handlers.Key {
	return handlers.Key{Contract: msg.RecipientAccount, Scope: msg.Scope, Action: msg.TypeName}
}

// Store key prefixes for controller-internal indices. Account, permission
// and producer keys are NOT private to this package: they live in
// chaintypes (AccountKey/PermissionKey/ProducerKey) precisely so that
// native and contract handlers write into the same keyspace the
// validation pipeline's referenced-accounts/authority checks read from.
var (
	prefixBlockSum = []byte("bsum/")
	prefixRecentTx = []byte("rtx/")
)

func blockSummaryKey(num uint32) []byte {
	k := append([]byte{}, prefixBlockSum...)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], num)
	return append(k, buf[:]...)
}

func recentTxKey(id [32]byte) []byte {
	return append(append([]byte{}, prefixRecentTx...), id[:]...)
}

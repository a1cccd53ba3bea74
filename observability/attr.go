package observability

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

const BlockIDKey attribute.Key = "chain.block_id"
const TxIDKey attribute.Key = "chain.tx_id"
const ProducerKey attribute.Key = "chain.producer"

func Round(round uint32) attribute.KeyValue {
	return attribute.Int64("chain.round", int64(round))
}

func BlockID(id chaintypes.BlockID) attribute.KeyValue {
	return BlockIDKey.String(id.String())
}

func TxID(id chaintypes.TransactionID) attribute.KeyValue {
	return TxIDKey.String(id.String())
}

func Producer(name chaintypes.AccountName) attribute.KeyValue {
	return ProducerKey.String(name.String())
}

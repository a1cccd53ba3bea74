package logger

import (
	"log/slog"

	"github.com/chaincorelabs/dposchain/chaintypes"
)

/*
Log attribute key values. Generally shouldn't be used directly, use the
appropriate constructor function below instead.
*/
const (
	ErrorKey   = "err"
	RoundKey   = "round"
	BlockKey   = "block_id"
	TxKey      = "tx_id"
	AccountKey = "account"
)

// Error adds an error to the log record.
func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

// Round adds the block/round number.
func Round(round uint32) slog.Attr {
	return slog.Uint64(RoundKey, uint64(round))
}

// Block adds a block id.
func Block(id chaintypes.BlockID) slog.Attr {
	return slog.String(BlockKey, id.String())
}

// Tx adds a transaction id.
func Tx(id chaintypes.TransactionID) slog.Attr {
	return slog.String(TxKey, id.String())
}

// Account adds an account name.
func Account(name chaintypes.AccountName) slog.Attr {
	return slog.String(AccountKey, name.String())
}

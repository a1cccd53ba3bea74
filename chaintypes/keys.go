package chaintypes

// AccountKey, PermissionKey and ProducerKey are the canonical object-store
// key encodings for the three ledger-wide indices both the controller
// (for the validation pipeline's referenced-accounts and authority checks)
// and any native or contract handler must agree on. Keeping them exported
// here rather than duplicated per-package is what lets a handler's apply
// function create an account or permission that the pipeline's next-stage
// checks can immediately see, since both sides read/write the same key.
const (
	accountPrefix    = "acct/"
	permissionPrefix = "perm/"
	producerPrefix   = "prod/"
)

func AccountKey(name AccountName) []byte {
	return append([]byte(accountPrefix), name.String()...)
}

func PermissionKey(account, permission AccountName) []byte {
	k := append([]byte(permissionPrefix), account.String()...)
	k = append(k, '/')
	return append(k, permission.String()...)
}

func ProducerKey(owner AccountName) []byte {
	return append([]byte(producerPrefix), owner.String()...)
}

// ProducerKeyPrefix is the prefix every ProducerKey starts with, for
// iterating all registered producers.
func ProducerKeyPrefix() []byte { return []byte(producerPrefix) }

// AccountKeyPrefix is the prefix every AccountKey starts with.
func AccountKeyPrefix() []byte { return []byte(accountPrefix) }

package chaintypes

// KeyWeight pairs a public key with its weight toward a permission's
// threshold.
type KeyWeight struct {
	Key    []byte `cbor:"1,keyasint"`
	Weight uint16 `cbor:"2,keyasint"`
}

// AccountWeight lets a permission be satisfied, in part, by another
// account's own permission (recursive delegation).
type AccountWeight struct {
	Account    AccountName `cbor:"1,keyasint"`
	Permission AccountName `cbor:"2,keyasint"`
	Weight     uint16      `cbor:"3,keyasint"`
}

// Permission is one named authority on an account: a weighted threshold
// over keys and/or delegated sub-permissions.
type Permission struct {
	Account   AccountName     `cbor:"1,keyasint"`
	Name      AccountName     `cbor:"2,keyasint"`
	Threshold uint32          `cbor:"3,keyasint"`
	Keys      []KeyWeight     `cbor:"4,keyasint,omitempty"`
	Accounts  []AccountWeight `cbor:"5,keyasint,omitempty"`
}

// Account is a referenced-accounts-check entry: an account simply needs to
// exist for messages to name it as sender/recipient/scope.
type Account struct {
	Name AccountName `cbor:"1,keyasint"`
}

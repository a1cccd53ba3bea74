package chaintypes

import (
	"errors"
	"fmt"
)

// NullAccount is the sentinel account name returned for slot 0 and used as
// the wildcard contract key in the handler registry.
const NullAccount AccountName = ""

const maxAccountNameLength = 13

var accountNameCharset = "." + "12345abcdefghijklmnopqrstuvwxyz"

// AccountName identifies an account, producer, contract or permission
// scope. It follows the short base32-ish charset used by this lineage's
// delegated-proof-of-stake predecessor: lowercase letters, digits 1-5, and
// '.', at most 13 characters.
type AccountName string

var ErrInvalidAccountName = errors.New("invalid account name")

// NewAccountName validates s and returns it as an AccountName.
func NewAccountName(s string) (AccountName, error) {
	if len(s) == 0 || len(s) > maxAccountNameLength {
		return "", fmt.Errorf("account name %q: length must be 1-%d: %w", s, maxAccountNameLength, ErrInvalidAccountName)
	}
	for _, r := range s {
		valid := false
		for _, c := range accountNameCharset {
			if r == c {
				valid = true
				break
			}
		}
		if !valid {
			return "", fmt.Errorf("account name %q: invalid character %q: %w", s, r, ErrInvalidAccountName)
		}
	}
	return AccountName(s), nil
}

func (a AccountName) String() string { return string(a) }

func (a AccountName) IsNull() bool { return a == NullAccount }

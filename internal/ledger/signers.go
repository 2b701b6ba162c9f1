package ledger

import "github.com/goatnetwork/covered-call/internal/types"

// Signers is the set of keys whose signatures were verified for one request.
type Signers map[types.Pubkey]struct{}

func NewSigners(keys ...types.Pubkey) Signers {
	s := make(Signers, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Signers) Contains(key types.Pubkey) bool {
	_, ok := s[key]
	return ok
}

// Package derive computes program derived addresses: addresses that are a
// one-way function of a seed list and a program id and that, unlike user keys,
// have no private key because they are not valid edwards25519 points.
package derive

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goatnetwork/covered-call/internal/types"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLength       = errors.New("seeds exceed the maximum length")
	ErrOnCurve             = errors.New("derived address is a valid curve point")
	ErrDerivationExhausted = errors.New("no viable bump found for derived address")
)

// onCurve is swapped in tests to force bump exhaustion.
var onCurve = types.Pubkey.IsOnCurve

// CreateProgramAddress hashes the seeds with the program id. The bump, if any,
// must already be the last seed.
func CreateProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return types.Pubkey{}, fmt.Errorf("%w: %d seeds, max %d", ErrMaxSeedLength, len(seeds), MaxSeeds)
	}

	size := len(programID) + len(pdaMarker)
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return types.Pubkey{}, fmt.Errorf("%w: seed %d has %d bytes", ErrMaxSeedLength, i, len(seed))
		}
		size += len(seed)
	}

	buf := make([]byte, 0, size)
	for _, seed := range seeds {
		buf = append(buf, seed...)
	}
	buf = append(buf, programID[:]...)
	buf = append(buf, pdaMarker...)

	addr, err := types.PubkeyFromBytes(chainhash.HashB(buf))
	if err != nil {
		return types.Pubkey{}, err
	}
	if onCurve(addr) {
		return types.Pubkey{}, ErrOnCurve
	}
	return addr, nil
}

// FindProgramAddress searches bumps from 255 down to 1 and returns the first
// address that is off the curve together with its bump.
func FindProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return types.Pubkey{}, 0, err
		}
	}
	return types.Pubkey{}, 0, ErrDerivationExhausted
}

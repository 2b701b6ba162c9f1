package derive

import (
	"encoding/binary"

	"github.com/goatnetwork/covered-call/internal/types"
)

// CoveredCallSeedPrefix namespaces escrow addresses inside the program.
const CoveredCallSeedPrefix = "covered-call"

// CoveredCallSeeds returns the ordered seed list for the terms. Amounts and
// expiry are fixed-width little-endian so every field boundary is unambiguous.
func CoveredCallSeeds(terms types.CoveredCallTerms) [][]byte {
	amountBase := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBase, terms.AmountBase)
	amountQuote := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountQuote, terms.AmountQuote)
	expiry := make([]byte, 8)
	binary.LittleEndian.PutUint64(expiry, uint64(terms.TimestampExpiry))

	return [][]byte{
		[]byte(CoveredCallSeedPrefix),
		terms.Seller.Bytes(),
		terms.Buyer.Bytes(),
		terms.MintBase.Bytes(),
		terms.MintQuote.Bytes(),
		amountBase,
		amountQuote,
		expiry,
	}
}

// FindCoveredCallAddress derives the escrow address and bump for the terms.
func FindCoveredCallAddress(programID types.Pubkey, terms types.CoveredCallTerms) (types.Pubkey, uint8, error) {
	return FindProgramAddress(CoveredCallSeeds(terms), programID)
}

// CoveredCallAddressWithBump re-derives an escrow address from a stored bump.
func CoveredCallAddressWithBump(programID types.Pubkey, terms types.CoveredCallTerms, bump uint8) (types.Pubkey, error) {
	seeds := append(CoveredCallSeeds(terms), []byte{bump})
	return CreateProgramAddress(seeds, programID)
}

// FindVaultAddress returns the associated token account of owner for mint.
// Passing the escrow address as owner gives every escrow exactly one vault.
func FindVaultAddress(owner, mint types.Pubkey) (types.Pubkey, uint8, error) {
	seeds := [][]byte{owner.Bytes(), types.TokenProgramID.Bytes(), mint.Bytes()}
	return FindProgramAddress(seeds, types.AssociatedTokenProgramID)
}

// Addresses bundles everything a client needs to submit an initialization.
type Addresses struct {
	Escrow types.Pubkey `json:"escrow"`
	Bump   uint8        `json:"bump"`
	Vault  types.Pubkey `json:"vault"`
}

func CoveredCallAddresses(programID types.Pubkey, terms types.CoveredCallTerms) (Addresses, error) {
	escrow, bump, err := FindCoveredCallAddress(programID, terms)
	if err != nil {
		return Addresses{}, err
	}
	vault, _, err := FindVaultAddress(escrow, terms.MintBase)
	if err != nil {
		return Addresses{}, err
	}
	return Addresses{Escrow: escrow, Bump: bump, Vault: vault}, nil
}

package program

import (
	"context"
	"errors"

	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/types"
	goerrors "github.com/go-errors/errors"
	log "github.com/sirupsen/logrus"
)

type InitializeArgs struct {
	AmountBase      uint64 `json:"amount_base"`
	AmountQuote     uint64 `json:"amount_quote"`
	TimestampExpiry int64  `json:"timestamp_expiry"`
	// DecimalsBase, when set, must equal the base mint decimals.
	DecimalsBase *uint8 `json:"decimals_base,omitempty"`
}

type InitializeAccounts struct {
	Seller    types.Pubkey `json:"seller"`
	Buyer     types.Pubkey `json:"buyer"`
	Escrow    types.Pubkey `json:"escrow"`
	MintBase  types.Pubkey `json:"mint_base"`
	MintQuote types.Pubkey `json:"mint_quote"`
	Funding   types.Pubkey `json:"funding"`
	Vault     types.Pubkey `json:"vault"`
}

func (a InitializeAccounts) Terms(args InitializeArgs) types.CoveredCallTerms {
	return types.CoveredCallTerms{
		Seller:          a.Seller,
		Buyer:           a.Buyer,
		MintBase:        a.MintBase,
		MintQuote:       a.MintQuote,
		AmountBase:      args.AmountBase,
		AmountQuote:     args.AmountQuote,
		TimestampExpiry: args.TimestampExpiry,
	}
}

// Initialize creates a covered call: it checks every precondition first, then
// allocates the escrow record, opens the vault and moves amount_base from the
// funding account into it. A failure after the first write leaves partial
// state in rt, so rt must be discarded by the caller on error.
func (p *Program) Initialize(ctx context.Context, rt Runtime, accts InitializeAccounts, args InitializeArgs, signers ledger.Signers) (*types.CoveredCall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !signers.Contains(accts.Seller) {
		return nil, newError(ErrCodeUnauthorized, "seller", "seller %s did not sign", accts.Seller)
	}
	if args.AmountBase == 0 {
		return nil, newError(ErrCodeInvalidAmount, "amount_base", "amount_base must be positive")
	}

	escrow, bump, vault, err := p.deriveAccounts(accts.Terms(args))
	if err != nil {
		return nil, err
	}
	if escrow != accts.Escrow {
		return nil, newError(ErrCodeTermsMismatch, "escrow", "expected %s, got %s", escrow, accts.Escrow)
	}
	if vault != accts.Vault {
		return nil, newError(ErrCodeTermsMismatch, "vault", "expected %s, got %s", vault, accts.Vault)
	}

	if err := p.ensureAbsent(rt, escrow, "escrow"); err != nil {
		return nil, err
	}

	mintBase, err := rt.GetMint(accts.MintBase)
	if err != nil {
		return nil, ledgerError(err, "mint_base")
	}
	if _, err := rt.GetMint(accts.MintQuote); err != nil {
		return nil, ledgerError(err, "mint_quote")
	}
	funding, err := rt.GetTokenAccount(accts.Funding)
	if err != nil {
		return nil, ledgerError(err, "funding")
	}
	if funding.Owner != accts.Seller.String() {
		return nil, newError(ErrCodeUnauthorized, "funding", "funding account is owned by %s", funding.Owner)
	}
	if funding.Mint != mintBase.Address {
		return nil, newError(ErrCodeAssetMismatch, "funding", "funding account holds %s, expected %s", funding.Mint, mintBase.Address)
	}
	if funding.Amount < args.AmountBase {
		return nil, newError(ErrCodeInsufficientFunds, "funding", "balance %d, need %d", funding.Amount, args.AmountBase)
	}
	if args.DecimalsBase != nil && *args.DecimalsBase != mintBase.Decimals {
		return nil, newError(ErrCodeAssetMismatch, "decimals_base", "mint has %d decimals, got %d", mintBase.Decimals, *args.DecimalsBase)
	}

	if err := p.ensureAbsent(rt, vault, "vault"); err != nil {
		return nil, err
	}

	now := rt.Now()
	if args.TimestampExpiry <= now {
		return nil, newError(ErrCodeExpiryInThePast, "timestamp_expiry", "expiry %d is not after %d", args.TimestampExpiry, now)
	}

	record := &types.CoveredCall{
		Seller:           accts.Seller,
		Buyer:            accts.Buyer,
		MintBase:         accts.MintBase,
		MintQuote:        accts.MintQuote,
		AmountBase:       args.AmountBase,
		AmountQuote:      args.AmountQuote,
		AmountPremium:    nil,
		TimestampCreated: now,
		TimestampExpiry:  args.TimestampExpiry,
		IsExercised:      false,
		Bump:             bump,
	}
	data, err := record.MarshalBinary()
	if err != nil {
		return nil, goerrors.Wrap(err, 0)
	}

	if err := rt.CreateProgramAccount(escrow, p.id, db.ACCOUNT_KIND_COVERED_CALL, data); err != nil {
		return nil, ledgerError(err, "escrow")
	}
	if err := rt.CreateTokenAccount(vault, accts.MintBase, escrow); err != nil {
		return nil, ledgerError(err, "vault")
	}
	if err := rt.TransferChecked(accts.Funding, vault, accts.MintBase, accts.Seller, args.AmountBase, mintBase.Decimals, signers); err != nil {
		return nil, ledgerError(err, "funding")
	}

	p.logger.WithFields(log.Fields{
		"escrow": escrow.String(),
		"seller": accts.Seller.String(),
		"amount": args.AmountBase,
		"expiry": args.TimestampExpiry,
	}).Debug("Covered call initialized")

	return record, nil
}

func (p *Program) deriveAccounts(terms types.CoveredCallTerms) (types.Pubkey, uint8, types.Pubkey, error) {
	escrow, bump, err := derive.FindCoveredCallAddress(p.id, terms)
	if err != nil {
		return types.Pubkey{}, 0, types.Pubkey{}, derivationError(err, "escrow")
	}
	vault, _, err := derive.FindVaultAddress(escrow, terms.MintBase)
	if err != nil {
		return types.Pubkey{}, 0, types.Pubkey{}, derivationError(err, "vault")
	}
	return escrow, bump, vault, nil
}

func derivationError(err error, field string) error {
	if errors.Is(err, derive.ErrDerivationExhausted) {
		return &Error{Code: ErrCodeDerivationExhausted, Field: field, Message: err.Error()}
	}
	return goerrors.Wrap(err, 1)
}

func (p *Program) ensureAbsent(rt Runtime, address types.Pubkey, field string) error {
	exists, err := rt.AccountExists(address)
	if err != nil {
		return goerrors.Wrap(err, 1)
	}
	if exists {
		return newError(ErrCodeAlreadyExists, field, "account %s already exists", address)
	}
	return nil
}

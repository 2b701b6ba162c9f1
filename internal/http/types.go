package http

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/program"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/shopspring/decimal"
)

// DeriveQuery is the covered call terms in query form
type DeriveQuery struct {
	Seller          string `form:"seller" binding:"required"`
	Buyer           string `form:"buyer" binding:"required"`
	MintBase        string `form:"mint_base" binding:"required"`
	MintQuote       string `form:"mint_quote" binding:"required"`
	AmountBase      uint64 `form:"amount_base"`
	AmountQuote     uint64 `form:"amount_quote"`
	TimestampExpiry int64  `form:"timestamp_expiry"`
}

type DeriveResponse struct {
	derive.Addresses
	ProgramID types.Pubkey `json:"program_id"`
}

// InitializeRequest submits a covered call. Escrow and vault may be left out,
// they are then derived before the signature is checked.
type InitializeRequest struct {
	Seller          types.Pubkey  `json:"seller" binding:"required"`
	Buyer           types.Pubkey  `json:"buyer" binding:"required"`
	MintBase        types.Pubkey  `json:"mint_base" binding:"required"`
	MintQuote       types.Pubkey  `json:"mint_quote" binding:"required"`
	Funding         types.Pubkey  `json:"funding" binding:"required"`
	Escrow          *types.Pubkey `json:"escrow,omitempty"`
	Vault           *types.Pubkey `json:"vault,omitempty"`
	AmountBase      uint64        `json:"amount_base"`
	AmountQuote     uint64        `json:"amount_quote"`
	TimestampExpiry int64         `json:"timestamp_expiry"`
	DecimalsBase    *uint8        `json:"decimals_base,omitempty"`
	Signature       hexutil.Bytes `json:"signature" binding:"required"`
}

type CoveredCallResponse struct {
	Address          string        `json:"address"`
	Seller           string        `json:"seller"`
	Buyer            string        `json:"buyer"`
	MintBase         string        `json:"mint_base"`
	MintQuote        string        `json:"mint_quote"`
	AmountBase       uint64        `json:"amount_base"`
	AmountQuote      uint64        `json:"amount_quote"`
	AmountPremium    *uint64       `json:"amount_premium"`
	TimestampCreated int64         `json:"timestamp_created"`
	TimestampExpiry  int64         `json:"timestamp_expiry"`
	IsExercised      bool          `json:"is_exercised"`
	Bump             uint8         `json:"bump"`
	Vault            string        `json:"vault"`
	Status           string        `json:"status"`
	Data             hexutil.Bytes `json:"data,omitempty"`
	Verified         bool          `json:"verified,omitempty"`
}

func newCoveredCallResponse(row *db.CoveredCall) CoveredCallResponse {
	return CoveredCallResponse{
		Address:          row.Address,
		Seller:           row.Seller,
		Buyer:            row.Buyer,
		MintBase:         row.MintBase,
		MintQuote:        row.MintQuote,
		AmountBase:       row.AmountBase,
		AmountQuote:      row.AmountQuote,
		AmountPremium:    row.AmountPremium,
		TimestampCreated: row.TimestampCreated,
		TimestampExpiry:  row.TimestampExpiry,
		IsExercised:      row.IsExercised,
		Bump:             row.Bump,
		Vault:            row.Vault,
		Status:           row.Status,
	}
}

type TokenAccountResponse struct {
	Address  string `json:"address"`
	Mint     string `json:"mint"`
	Owner    string `json:"owner"`
	Amount   uint64 `json:"amount"`
	UIAmount string `json:"ui_amount"`
	Decimals uint8  `json:"decimals"`
}

func newTokenAccountResponse(account *db.TokenAccount, decimals uint8) TokenAccountResponse {
	return TokenAccountResponse{
		Address:  account.Address,
		Mint:     account.Mint,
		Owner:    account.Owner,
		Amount:   account.Amount,
		UIAmount: uiAmount(account.Amount, decimals),
		Decimals: decimals,
	}
}

// uiAmount renders base units as a decimal string, 1500000 with 6 decimals is "1.5".
func uiAmount(amount uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals)).String()
}

type CreateMintRequest struct {
	Address   *types.Pubkey `json:"address,omitempty"`
	Authority types.Pubkey  `json:"authority" binding:"required"`
	Decimals  uint8         `json:"decimals"`
}

type OpenTokenAccountRequest struct {
	Owner types.Pubkey `json:"owner" binding:"required"`
	Mint  types.Pubkey `json:"mint" binding:"required"`
}

type MintToRequest struct {
	Mint   types.Pubkey `json:"mint" binding:"required"`
	Dest   types.Pubkey `json:"dest" binding:"required"`
	Amount uint64       `json:"amount" binding:"required"`
}

func (req *InitializeRequest) accounts() program.InitializeAccounts {
	accts := program.InitializeAccounts{
		Seller:    req.Seller,
		Buyer:     req.Buyer,
		MintBase:  req.MintBase,
		MintQuote: req.MintQuote,
		Funding:   req.Funding,
	}
	if req.Escrow != nil {
		accts.Escrow = *req.Escrow
	}
	if req.Vault != nil {
		accts.Vault = *req.Vault
	}
	return accts
}

func (req *InitializeRequest) args() program.InitializeArgs {
	return program.InitializeArgs{
		AmountBase:      req.AmountBase,
		AmountQuote:     req.AmountQuote,
		TimestampExpiry: req.TimestampExpiry,
		DecimalsBase:    req.DecimalsBase,
	}
}

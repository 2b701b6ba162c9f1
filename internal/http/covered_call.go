package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/program"
	"github.com/goatnetwork/covered-call/internal/state"
	"github.com/goatnetwork/covered-call/internal/types"
)

func parsePubkeys(named map[string]string) (map[string]types.Pubkey, error) {
	out := make(map[string]types.Pubkey, len(named))
	for name, raw := range named {
		pk, err := types.PubkeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		out[name] = pk
	}
	return out, nil
}

func (hs *HTTPServer) handleDeriveCoveredCall(c *gin.Context) {
	var q DeriveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	keys, err := parsePubkeys(map[string]string{
		"seller": q.Seller, "buyer": q.Buyer, "mint_base": q.MintBase, "mint_quote": q.MintQuote,
	})
	if err != nil {
		badRequest(c, err)
		return
	}

	programID := hs.state.Program().ID()
	addrs, err := derive.CoveredCallAddresses(programID, types.CoveredCallTerms{
		Seller:          keys["seller"],
		Buyer:           keys["buyer"],
		MintBase:        keys["mint_base"],
		MintQuote:       keys["mint_quote"],
		AmountBase:      q.AmountBase,
		AmountQuote:     q.AmountQuote,
		TimestampExpiry: q.TimestampExpiry,
	})
	if err != nil {
		hs.writeError(c, &program.Error{Code: program.ErrCodeDerivationExhausted, Field: "escrow", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, DeriveResponse{Addresses: addrs, ProgramID: programID})
}

func (hs *HTTPServer) handleInitializeCoveredCall(c *gin.Context) {
	var req InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	programID := hs.state.Program().ID()
	accts, args := req.accounts(), req.args()
	if req.Escrow == nil || req.Vault == nil {
		addrs, err := derive.CoveredCallAddresses(programID, accts.Terms(args))
		if err != nil {
			hs.writeError(c, &program.Error{Code: program.ErrCodeDerivationExhausted, Field: "escrow", Message: err.Error()})
			return
		}
		if req.Escrow == nil {
			accts.Escrow = addrs.Escrow
		}
		if req.Vault == nil {
			accts.Vault = addrs.Vault
		}
	}

	signers := program.VerifyInitialize(programID, accts, args, req.Signature)
	row, err := hs.state.InitializeCoveredCall(c.Request.Context(), accts, args, signers)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCoveredCallResponse(row))
}

func (hs *HTTPServer) handleGetCoveredCall(c *gin.Context) {
	address, err := types.PubkeyFromBase58(c.Param("address"))
	if err != nil {
		badRequest(c, err)
		return
	}
	view, err := hs.state.GetCoveredCall(address)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	resp := newCoveredCallResponse(view.Row)
	resp.Data = view.Data
	resp.Verified = true
	c.JSON(http.StatusOK, resp)
}

func (hs *HTTPServer) handleListCoveredCalls(c *gin.Context) {
	var q struct {
		Seller string `form:"seller"`
		Buyer  string `form:"buyer"`
		Limit  int    `form:"limit"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	filter := state.CoveredCallFilter{Limit: q.Limit, Offset: q.Offset}
	if q.Seller != "" {
		seller, err := types.PubkeyFromBase58(q.Seller)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid seller: %w", err))
			return
		}
		filter.Seller = &seller
	}
	if q.Buyer != "" {
		buyer, err := types.PubkeyFromBase58(q.Buyer)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid buyer: %w", err))
			return
		}
		filter.Buyer = &buyer
	}

	rows, err := hs.state.ListCoveredCalls(filter)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	resp := make([]CoveredCallResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, newCoveredCallResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"covered_calls": resp})
}

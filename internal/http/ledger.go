package http

import (
	"crypto/rand"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/covered-call/internal/types"
)

func (hs *HTTPServer) handleGetTokenAccount(c *gin.Context) {
	address, err := types.PubkeyFromBase58(c.Param("address"))
	if err != nil {
		badRequest(c, err)
		return
	}
	account, mint, err := hs.state.GetTokenAccount(address)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTokenAccountResponse(account, mint.Decimals))
}

func (hs *HTTPServer) handleListTokenAccounts(c *gin.Context) {
	owner, err := types.PubkeyFromBase58(c.Query("owner"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid owner: %w", err))
		return
	}
	accounts, err := hs.state.ListTokenAccountsByOwner(owner)
	if err != nil {
		hs.writeError(c, err)
		return
	}

	decimals := make(map[string]uint8)
	resp := make([]TokenAccountResponse, 0, len(accounts))
	for _, account := range accounts {
		d, ok := decimals[account.Mint]
		if !ok {
			address, err := types.PubkeyFromBase58(account.Address)
			if err != nil {
				hs.writeError(c, err)
				return
			}
			_, mint, err := hs.state.GetTokenAccount(address)
			if err != nil {
				hs.writeError(c, err)
				return
			}
			d = mint.Decimals
			decimals[account.Mint] = d
		}
		resp = append(resp, newTokenAccountResponse(account, d))
	}
	c.JSON(http.StatusOK, resp)
}

func (hs *HTTPServer) handleCreateMint(c *gin.Context) {
	var req CreateMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var address types.Pubkey
	if req.Address != nil {
		address = *req.Address
	} else if _, err := rand.Read(address[:]); err != nil {
		hs.writeError(c, err)
		return
	}

	mint, err := hs.state.CreateMint(c.Request.Context(), address, req.Authority, req.Decimals)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	hs.logger.WithField("admin", c.GetString(ctxAdminSubject)).Infof("Admin created mint %s", mint.Address)
	c.JSON(http.StatusCreated, mint)
}

func (hs *HTTPServer) handleOpenTokenAccount(c *gin.Context) {
	var req OpenTokenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	account, err := hs.state.OpenTokenAccount(c.Request.Context(), req.Owner, req.Mint)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	_, mint, err := hs.state.GetTokenAccount(types.MustPubkeyFromBase58(account.Address))
	if err != nil {
		hs.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTokenAccountResponse(account, mint.Decimals))
}

func (hs *HTTPServer) handleMintTo(c *gin.Context) {
	var req MintToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	account, err := hs.state.MintTo(c.Request.Context(), req.Mint, req.Dest, req.Amount)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	_, mint, err := hs.state.GetTokenAccount(req.Dest)
	if err != nil {
		hs.writeError(c, err)
		return
	}
	hs.logger.WithField("admin", c.GetString(ctxAdminSubject)).Infof("Admin minted %d of %s to %s", req.Amount, req.Mint, req.Dest)
	c.JSON(http.StatusOK, newTokenAccountResponse(account, mint.Decimals))
}

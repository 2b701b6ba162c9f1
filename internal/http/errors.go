package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/program"
	goerrors "github.com/go-errors/errors"
)

var programStatus = map[program.ErrorCode]int{
	program.ErrCodeTermsMismatch:       http.StatusBadRequest,
	program.ErrCodeAlreadyExists:       http.StatusConflict,
	program.ErrCodeInsufficientFunds:   http.StatusUnprocessableEntity,
	program.ErrCodeAssetMismatch:       http.StatusBadRequest,
	program.ErrCodeExpiryInThePast:     http.StatusBadRequest,
	program.ErrCodeDerivationExhausted: http.StatusUnprocessableEntity,
	program.ErrCodeUnauthorized:        http.StatusForbidden,
	program.ErrCodeAccountNotFound:     http.StatusNotFound,
	program.ErrCodeInvalidAmount:       http.StatusBadRequest,
}

func (hs *HTTPServer) writeError(c *gin.Context, err error) {
	requestID := c.GetString(ctxRequestID)

	var perr *program.Error
	if errors.As(err, &perr) {
		status, ok := programStatus[perr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"code": perr.Code.String(), "field": perr.Field, "error": perr.Message, "request_id": requestID})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrAccountInUse):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrMintMismatch), errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrOverflow):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			hs.logger.WithField("request_id", requestID).Errorf("Request failed: %s", stackErr.ErrorStack())
		} else {
			hs.logger.WithField("request_id", requestID).Errorf("Request failed: %v", err)
		}
		c.JSON(status, gin.H{"error": "internal error", "request_id": requestID})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "request_id": requestID})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "request_id": c.GetString(ctxRequestID)})
}

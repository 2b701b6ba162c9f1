package program

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/types"
)

const initializeDomain = "covered-call/initialize/v1"

// InitializeMessage is the canonical byte string a seller signs to authorize
// one initialization. Every account and argument is bound into it.
func InitializeMessage(programID types.Pubkey, accts InitializeAccounts, args InitializeArgs) []byte {
	var buf bytes.Buffer
	buf.WriteString(initializeDomain)
	for _, pk := range []types.Pubkey{
		programID, accts.Seller, accts.Buyer, accts.Escrow,
		accts.MintBase, accts.MintQuote, accts.Funding, accts.Vault,
	} {
		buf.Write(pk[:])
	}

	var scratch [8]byte
	for _, v := range []uint64{args.AmountBase, args.AmountQuote, uint64(args.TimestampExpiry)} {
		binary.LittleEndian.PutUint64(scratch[:], v)
		buf.Write(scratch[:])
	}
	if args.DecimalsBase != nil {
		buf.Write([]byte{1, *args.DecimalsBase})
	} else {
		buf.Write([]byte{0, 0})
	}
	return buf.Bytes()
}

func SignInitialize(key ed25519.PrivateKey, programID types.Pubkey, accts InitializeAccounts, args InitializeArgs) []byte {
	return ed25519.Sign(key, InitializeMessage(programID, accts, args))
}

// VerifyInitialize returns the signer set proven by signature, empty when the
// signature is not the seller's.
func VerifyInitialize(programID types.Pubkey, accts InitializeAccounts, args InitializeArgs, signature []byte) ledger.Signers {
	if accts.Seller.Verify(InitializeMessage(programID, accts, args), signature) {
		return ledger.NewSigners(accts.Seller)
	}
	return ledger.NewSigners()
}

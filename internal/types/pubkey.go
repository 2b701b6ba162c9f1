package types

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/base58"
)

const PubkeyLength = 32

// Pubkey identifies an account, a mint or a program. Printed as base58.
type Pubkey [PubkeyLength]byte

var (
	// SystemProgramID is the all-zero key, also used as "no owner".
	SystemProgramID = Pubkey{}
	// TokenProgramID owns every mint and token account in the ledger.
	TokenProgramID = MustPubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	// AssociatedTokenProgramID is the program under which vault addresses are derived.
	AssociatedTokenProgramID = MustPubkeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != PubkeyLength {
		return pk, fmt.Errorf("invalid pubkey length %d, expected %d", len(b), PubkeyLength)
	}
	copy(pk[:], b)
	return pk, nil
}

func PubkeyFromBase58(s string) (Pubkey, error) {
	if s == "" {
		return Pubkey{}, fmt.Errorf("empty pubkey")
	}
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return Pubkey{}, fmt.Errorf("invalid base58 pubkey %q", s)
	}
	return PubkeyFromBytes(raw)
}

func MustPubkeyFromBase58(s string) Pubkey {
	pk, err := PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PubkeyFromEd25519 returns the identity of an ed25519 signing key.
func PubkeyFromEd25519(pub ed25519.PublicKey) Pubkey {
	var pk Pubkey
	copy(pk[:], pub)
	return pk
}

func (pk Pubkey) String() string {
	return base58.Encode(pk[:])
}

func (pk Pubkey) Bytes() []byte {
	return pk[:]
}

func (pk Pubkey) IsZero() bool {
	return pk == Pubkey{}
}

func (pk Pubkey) Equals(other Pubkey) bool {
	return bytes.Equal(pk[:], other[:])
}

// IsOnCurve reports whether the key decodes as an edwards25519 point, i.e. whether
// somebody could hold the matching private key. Derived addresses never are.
func (pk Pubkey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

func (pk Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

func (pk *Pubkey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := PubkeyFromBase58(s)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// Verify checks an ed25519 signature made by the key.
func (pk Pubkey) Verify(message, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, signature)
}

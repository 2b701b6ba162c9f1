package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	DiscriminatorLength = 8

	// CoveredCallInitSpace is the size of the record without its discriminator:
	// 4 keys, 2 amounts, optional premium (marker + u64), 2 timestamps, flag, bump.
	CoveredCallInitSpace = 4*PubkeyLength + 8 + 8 + 1 + 8 + 8 + 8 + 1 + 1
	// CoveredCallSpace is the full account size allocated at creation.
	CoveredCallSpace = DiscriminatorLength + CoveredCallInitSpace
)

var (
	ErrInvalidDiscriminator = errors.New("account discriminator mismatch")
	ErrAccountDataTooSmall  = errors.New("account data too small")
)

// CoveredCallDiscriminator tags covered call accounts: sha256("account:CoveredCall")[:8].
var CoveredCallDiscriminator = accountDiscriminator("CoveredCall")

func accountDiscriminator(name string) [DiscriminatorLength]byte {
	var d [DiscriminatorLength]byte
	copy(d[:], chainhash.HashB([]byte("account:"+name)))
	return d
}

// CoveredCallTerms is the tuple the escrow address is derived from.
type CoveredCallTerms struct {
	Seller          Pubkey `json:"seller"`
	Buyer           Pubkey `json:"buyer"`
	MintBase        Pubkey `json:"mint_base"`
	MintQuote       Pubkey `json:"mint_quote"`
	AmountBase      uint64 `json:"amount_base"`
	AmountQuote     uint64 `json:"amount_quote"`
	TimestampExpiry int64  `json:"timestamp_expiry"`
}

// CoveredCall is the escrow record persisted at the derived address.
type CoveredCall struct {
	Seller           Pubkey  `json:"seller"`
	Buyer            Pubkey  `json:"buyer"`
	MintBase         Pubkey  `json:"mint_base"`
	MintQuote        Pubkey  `json:"mint_quote"`
	AmountBase       uint64  `json:"amount_base"`
	AmountQuote      uint64  `json:"amount_quote"`
	AmountPremium    *uint64 `json:"amount_premium"`
	TimestampCreated int64   `json:"timestamp_created"`
	TimestampExpiry  int64   `json:"timestamp_expiry"`
	IsExercised      bool    `json:"is_exercised"`
	Bump             uint8   `json:"bump"`
}

func (c *CoveredCall) Terms() CoveredCallTerms {
	return CoveredCallTerms{
		Seller:          c.Seller,
		Buyer:           c.Buyer,
		MintBase:        c.MintBase,
		MintQuote:       c.MintQuote,
		AmountBase:      c.AmountBase,
		AmountQuote:     c.AmountQuote,
		TimestampExpiry: c.TimestampExpiry,
	}
}

// MarshalBinary encodes the record with its discriminator using fixed-width
// little-endian fields. The premium always takes 9 bytes.
func (c *CoveredCall) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, CoveredCallSpace))
	buf.Write(CoveredCallDiscriminator[:])
	buf.Write(c.Seller[:])
	buf.Write(c.Buyer[:])
	buf.Write(c.MintBase[:])
	buf.Write(c.MintQuote[:])

	var scratch [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(scratch[:], v)
		buf.Write(scratch[:])
	}
	putU64(c.AmountBase)
	putU64(c.AmountQuote)
	if c.AmountPremium != nil {
		buf.WriteByte(1)
		putU64(*c.AmountPremium)
	} else {
		buf.WriteByte(0)
		putU64(0)
	}
	putU64(uint64(c.TimestampCreated))
	putU64(uint64(c.TimestampExpiry))
	if c.IsExercised {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(c.Bump)

	return buf.Bytes(), nil
}

func (c *CoveredCall) UnmarshalBinary(data []byte) error {
	if len(data) < CoveredCallSpace {
		return fmt.Errorf("%w: %d bytes, expected %d", ErrAccountDataTooSmall, len(data), CoveredCallSpace)
	}
	if !bytes.Equal(data[:DiscriminatorLength], CoveredCallDiscriminator[:]) {
		return ErrInvalidDiscriminator
	}

	off := DiscriminatorLength
	readKey := func() Pubkey {
		var pk Pubkey
		copy(pk[:], data[off:off+PubkeyLength])
		off += PubkeyLength
		return pk
	}
	readU64 := func() uint64 {
		v := binary.LittleEndian.Uint64(data[off : off+8])
		off += 8
		return v
	}
	readByte := func() byte {
		b := data[off]
		off++
		return b
	}

	var out CoveredCall
	out.Seller = readKey()
	out.Buyer = readKey()
	out.MintBase = readKey()
	out.MintQuote = readKey()
	out.AmountBase = readU64()
	out.AmountQuote = readU64()
	switch marker := readByte(); marker {
	case 0:
		readU64()
	case 1:
		premium := readU64()
		out.AmountPremium = &premium
	default:
		return fmt.Errorf("invalid amount_premium marker %d", marker)
	}
	out.TimestampCreated = int64(readU64())
	out.TimestampExpiry = int64(readU64())
	switch flag := readByte(); flag {
	case 0:
	case 1:
		out.IsExercised = true
	default:
		return fmt.Errorf("invalid is_exercised flag %d", flag)
	}
	out.Bump = readByte()

	*c = out
	return nil
}

package ledger

import (
	"crypto/rand"
	"testing"

	"github.com/goatnetwork/covered-call/internal/config"
	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	dm, err := db.OpenDatabaseManager(config.Config{DbType: config.DB_TYPE_SQLITE, DbDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	return New(dm.GetLedgerDB(), ClockFunc(func() int64 { return 1_700_000_000 })), dm.GetLedgerDB()
}

func newKey(t *testing.T) types.Pubkey {
	var pk types.Pubkey
	_, err := rand.Read(pk[:])
	require.NoError(t, err)
	return pk
}

func TestSystemClockMonotonic(t *testing.T) {
	c := NewSystemClock()
	c.last = 1 << 40
	assert.Equal(t, int64(1<<40), c.Now())

	c = NewSystemClock()
	prev := c.Now()
	for i := 0; i < 100; i++ {
		now := c.Now()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
}

func TestSigners(t *testing.T) {
	a, b := newKey(t), newKey(t)
	s := NewSigners(a)
	assert.True(t, s.Contains(a))
	assert.False(t, s.Contains(b))
	assert.False(t, Signers(nil).Contains(a))
}

func TestCreateProgramAccount(t *testing.T) {
	l, _ := newTestLedger(t)
	addr, owner := newKey(t), newKey(t)

	_, err := l.GetProgramAccount(addr)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, l.CreateProgramAccount(addr, owner, db.ACCOUNT_KIND_COVERED_CALL, []byte{1, 2, 3}))
	account, err := l.GetProgramAccount(addr)
	require.NoError(t, err)
	assert.Equal(t, owner.String(), account.Owner)
	assert.Equal(t, []byte{1, 2, 3}, account.Data)

	err = l.CreateProgramAccount(addr, owner, db.ACCOUNT_KIND_COVERED_CALL, []byte{9})
	assert.ErrorIs(t, err, ErrAccountInUse)

	account, err = l.GetProgramAccount(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, account.Data)
}

func TestAccountExistsAcrossKinds(t *testing.T) {
	l, _ := newTestLedger(t)
	mint, authority := newKey(t), newKey(t)
	require.NoError(t, l.InitializeMint(mint, authority, 6))

	exists, err := l.AccountExists(mint)
	require.NoError(t, err)
	assert.True(t, exists)

	// a program account cannot take over a mint address
	assert.ErrorIs(t, l.CreateProgramAccount(mint, newKey(t), db.ACCOUNT_KIND_COVERED_CALL, nil), ErrAccountInUse)
	assert.ErrorIs(t, l.CreateTokenAccount(mint, mint, authority), ErrAccountInUse)
	assert.ErrorIs(t, l.InitializeMint(mint, authority, 9), ErrAccountInUse)
}

type tokenFixture struct {
	l         *Ledger
	mint      types.Pubkey
	authority types.Pubkey
	owner     types.Pubkey
	source    types.Pubkey
	dest      types.Pubkey
}

func newTokenFixture(t *testing.T, balance uint64) *tokenFixture {
	l, _ := newTestLedger(t)
	f := &tokenFixture{l: l, mint: newKey(t), authority: newKey(t), owner: newKey(t)}
	require.NoError(t, l.InitializeMint(f.mint, f.authority, 6))

	var err error
	f.source, err = l.CreateAssociatedTokenAccount(f.owner, f.mint)
	require.NoError(t, err)
	f.dest, err = l.CreateAssociatedTokenAccount(newKey(t), f.mint)
	require.NoError(t, err)
	if balance > 0 {
		require.NoError(t, l.MintTo(f.mint, f.source, f.authority, balance, NewSigners(f.authority)))
	}
	return f
}

func (f *tokenFixture) balance(t *testing.T, address types.Pubkey) uint64 {
	account, err := f.l.GetTokenAccount(address)
	require.NoError(t, err)
	return account.Amount
}

func TestMintTo(t *testing.T) {
	f := newTokenFixture(t, 1_000)
	assert.Equal(t, uint64(1_000), f.balance(t, f.source))

	mint, err := f.l.GetMint(f.mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), mint.Supply)

	assert.ErrorIs(t, f.l.MintTo(f.mint, f.source, f.authority, 5, NewSigners()), ErrMissingSignature)
	assert.ErrorIs(t, f.l.MintTo(f.mint, f.source, f.owner, 5, NewSigners(f.owner)), ErrOwnerMismatch)
	assert.ErrorIs(t, f.l.MintTo(f.mint, f.source, f.authority, 0, NewSigners(f.authority)), ErrInvalidAmount)
	assert.Equal(t, uint64(1_000), f.balance(t, f.source))
}

func TestCreateAssociatedTokenAccount(t *testing.T) {
	f := newTokenFixture(t, 0)
	_, err := f.l.CreateAssociatedTokenAccount(f.owner, f.mint)
	assert.ErrorIs(t, err, ErrAccountInUse)

	_, err = f.l.CreateAssociatedTokenAccount(f.owner, newKey(t))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	accounts, err := f.l.ListTokenAccountsByOwner(f.owner)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, f.source.String(), accounts[0].Address)
}

func TestTransferChecked(t *testing.T) {
	f := newTokenFixture(t, 1_000)
	signers := NewSigners(f.owner)

	require.NoError(t, f.l.TransferChecked(f.source, f.dest, f.mint, f.owner, 400, 6, signers))
	assert.Equal(t, uint64(600), f.balance(t, f.source))
	assert.Equal(t, uint64(400), f.balance(t, f.dest))

	// exact balance is allowed
	require.NoError(t, f.l.TransferChecked(f.source, f.dest, f.mint, f.owner, 600, 6, signers))
	assert.Equal(t, uint64(0), f.balance(t, f.source))
	assert.Equal(t, uint64(1_000), f.balance(t, f.dest))
}

func TestTransferCheckedRejects(t *testing.T) {
	f := newTokenFixture(t, 1_000)
	signers := NewSigners(f.owner)

	otherMint := newKey(t)
	require.NoError(t, f.l.InitializeMint(otherMint, f.authority, 6))
	otherAccount, err := f.l.CreateAssociatedTokenAccount(f.owner, otherMint)
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"insufficient", func() error {
			return f.l.TransferChecked(f.source, f.dest, f.mint, f.owner, 1_001, 6, signers)
		}, ErrInsufficientFunds},
		{"decimals", func() error {
			return f.l.TransferChecked(f.source, f.dest, f.mint, f.owner, 1, 9, signers)
		}, ErrDecimalsMismatch},
		{"wrong mint", func() error {
			return f.l.TransferChecked(f.source, f.dest, otherMint, f.owner, 1, 6, signers)
		}, ErrMintMismatch},
		{"destination mint", func() error {
			return f.l.TransferChecked(f.source, otherAccount, f.mint, f.owner, 1, 6, signers)
		}, ErrMintMismatch},
		{"wrong owner", func() error {
			return f.l.TransferChecked(f.source, f.dest, f.mint, f.authority, 1, 6, NewSigners(f.authority))
		}, ErrOwnerMismatch},
		{"unsigned", func() error {
			return f.l.TransferChecked(f.source, f.dest, f.mint, f.owner, 1, 6, NewSigners())
		}, ErrMissingSignature},
		{"missing destination", func() error {
			return f.l.TransferChecked(f.source, newKey(t), f.mint, f.owner, 1, 6, signers)
		}, ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
			assert.Equal(t, uint64(1_000), f.balance(t, f.source))
			assert.Equal(t, uint64(0), f.balance(t, f.dest))
		})
	}
}

func TestLedgerRollsBackWithTransaction(t *testing.T) {
	f := newTokenFixture(t, 1_000)
	addr := newKey(t)

	err := f.l.db.Transaction(func(tx *gorm.DB) error {
		txl := New(tx, f.l.clock)
		require.NoError(t, txl.CreateProgramAccount(addr, newKey(t), db.ACCOUNT_KIND_COVERED_CALL, []byte{1}))
		require.NoError(t, txl.TransferChecked(f.source, f.dest, f.mint, f.owner, 10, 6, NewSigners(f.owner)))
		return txl.TransferChecked(f.source, f.dest, f.mint, f.owner, 5_000, 6, NewSigners(f.owner))
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	exists, err := f.l.AccountExists(addr)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, uint64(1_000), f.balance(t, f.source))
	assert.Equal(t, uint64(0), f.balance(t, f.dest))
}

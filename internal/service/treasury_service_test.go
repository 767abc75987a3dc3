package service

import (
	"context"
	"testing"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studentAllowance(roles []string) int64 {
	for _, r := range roles {
		if r == domain.RoleAdmin {
			return 0
		}
	}
	return 100
}

func newTestTreasury(env *testEnv) *TreasuryServiceImpl {
	return NewTreasuryService(
		memUserRepo{env.store}, memWalletRepo{env.store}, memCoinRepo{env.store}, memEventRepo{env.store},
		env.ledger, env.store, NewArgon2HashServiceWithParams(cheapArgon2), studentAllowance, newTestLogger(),
	)
}

func TestTreasuryService_Vault(t *testing.T) {
	env := newTestEnv()
	svc := newTestTreasury(env)
	fundTreasury(t, env, 100)
	createEvent(t, env, 10, 30)

	vault, err := svc.Vault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.VaultSummary{Physical: 100, Committed: 30, Available: 70}, *vault)
}

func TestTreasuryService_MintSemester(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := newTestTreasury(env)

	_, err := svc.MintSemester(ctx, "2026A")
	assert.ErrorIs(t, err, apperror.Validation(""), "no wallet holders yet")

	env.store.addUser(domain.RoleStudent)
	env.store.addUser(domain.RoleStudent, domain.RoleSeller)
	env.store.addUser(domain.RoleAdmin)

	txn, err := svc.MintSemester(ctx, " 2026A ")
	require.NoError(t, err)
	assert.Equal(t, int64(200), txn.Amount)
	assert.Equal(t, domain.TransactionTypeMintTreasury, txn.Type)
	assert.Equal(t, "MINT_SEM_2026A_TREASURY", txn.ReferenceID)
	assert.Equal(t, int64(200), env.store.balance(domain.TreasuryWalletID))

	_, err = svc.MintSemester(ctx, "   ")
	assert.ErrorIs(t, err, apperror.Validation(""))
}

func TestTreasuryService_MintManual(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := newTestTreasury(env)

	hash, err := NewArgon2HashServiceWithParams(cheapArgon2).Hash("admin-pass")
	require.NoError(t, err)
	admin, _ := env.store.addUser(domain.RoleAdmin)
	student, _ := env.store.addUser(domain.RoleStudent)
	env.store.with(func(st *memState) {
		for _, id := range []uuid.UUID{admin.ID, student.ID} {
			u := st.users[id]
			u.PasswordHash = hash
			st.users[id] = u
		}
	})

	tests := []struct {
		name string
		req  ports.ManualMintRequest
		want error
	}{
		{"zero amount", ports.ManualMintRequest{AdminID: admin.ID, Password: "admin-pass"}, apperror.ErrInvalidAmount()},
		{"unknown admin", ports.ManualMintRequest{AdminID: uuid.New(), Password: "admin-pass", Amount: 5}, apperror.ErrInvalidCredentials()},
		{"not an admin", ports.ManualMintRequest{AdminID: student.ID, Password: "admin-pass", Amount: 5}, apperror.ErrForbidden()},
		{"wrong password", ports.ManualMintRequest{AdminID: admin.ID, Password: "guess", Amount: 5}, apperror.ErrInvalidCredentials()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.MintManual(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, env.store.supply())

	txn, err := svc.MintManual(ctx, ports.ManualMintRequest{AdminID: admin.ID, Password: "admin-pass", Amount: 25, Reason: "Orientation week"})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeMintManual, txn.Type)
	assert.Equal(t, int64(25), env.store.balance(domain.TreasuryWalletID))

	rows := env.store.historyFor(txn.ID)
	require.Len(t, rows, 25)
	assert.Equal(t, "Orientation week", rows[0].Reason)
}

func TestTreasuryService_Grant(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := newTestTreasury(env)
	fundTreasury(t, env, 100)
	createEvent(t, env, 10, 60)
	user, wallet := env.store.addUser()

	_, err := svc.Grant(ctx, ports.GrantRequest{UserID: user.ID, Amount: 41})
	require.ErrorIs(t, err, apperror.ErrInsufficientFunds())
	assert.Contains(t, err.Error(), "available 40")
	assert.Equal(t, int64(100), env.store.balance(domain.TreasuryWalletID))

	txn, err := svc.Grant(ctx, ports.GrantRequest{UserID: user.ID, Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN_GRANT", txn.ReferenceID)
	assert.Equal(t, int64(40), env.store.balance(wallet.ID))
	assert.Equal(t, int64(60), env.store.balance(domain.TreasuryWalletID))
	assert.Equal(t, "Admin grant", env.store.historyFor(txn.ID)[0].Reason)

	_, err = svc.Grant(ctx, ports.GrantRequest{UserID: uuid.New(), Amount: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound("Wallet"))

	_, err = svc.Grant(ctx, ports.GrantRequest{UserID: user.ID, Amount: 0})
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount())
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rewardEventColumnsList() []string {
	return []string{"id", "name", "description", "reward_amount", "total_budget", "remaining_budget",
		"secret_key_enc", "expires_at", "is_active", "qr_refresh_rate", "created_at"}
}

func newTestRewardEvent() *domain.RewardEvent {
	expires := time.Now().Add(time.Hour).UTC()
	return &domain.RewardEvent{
		ID:              uuid.New(),
		Name:            "Hackathon",
		RewardAmount:    10,
		TotalBudget:     100,
		RemainingBudget: 100,
		SecretKeyEnc:    "enc",
		ExpiresAt:       &expires,
		IsActive:        true,
		QRRefreshRate:   60,
		CreatedAt:       time.Now().UTC(),
	}
}

func rewardEventRow(e *domain.RewardEvent) *pgxmock.Rows {
	return pgxmock.NewRows(rewardEventColumnsList()).AddRow(
		e.ID, e.Name, e.Description, e.RewardAmount, e.TotalBudget, e.RemainingBudget,
		e.SecretKeyEnc, e.ExpiresAt, e.IsActive, e.QRRefreshRate, e.CreatedAt,
	)
}

func TestRewardEventRepo_LockBudgetAndCommitted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(rewardBudgetLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(remaining_budget\\), 0\\)").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(250)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	repo := NewRewardEventRepo(mock)
	require.NoError(t, repo.LockBudget(context.Background(), tx))
	committed, err := repo.CommittedBudget(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, int64(250), committed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewardEventRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e := newTestRewardEvent()
	mock.ExpectExec("INSERT INTO reward_events").
		WithArgs(e.ID, e.Name, e.Description, e.RewardAmount, e.TotalBudget, e.RemainingBudget,
			e.SecretKeyEnc, e.ExpiresAt, e.IsActive, e.QRRefreshRate, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, NewRewardEventRepo(mock).Create(context.Background(), nil, e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewardEventRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e := newTestRewardEvent()
	mock.ExpectQuery("SELECT .+ FROM reward_events WHERE id").
		WithArgs(e.ID).
		WillReturnRows(rewardEventRow(e))

	got, err := NewRewardEventRepo(mock).GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.Name, got.Name)
	assert.Equal(t, "enc", got.SecretKeyEnc)
}

func TestRewardEventRepo_SetActive_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("UPDATE reward_events SET is_active").
		WithArgs(id, false).
		WillReturnRows(pgxmock.NewRows(rewardEventColumnsList()))

	got, err := NewRewardEventRepo(mock).SetActive(context.Background(), nil, id, false)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRewardEventRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("DELETE FROM reward_events").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	ok, err := NewRewardEventRepo(mock).Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRewardEventRepo_ConsumeBudget(t *testing.T) {
	tests := []struct {
		name string
		rows *pgxmock.Rows
		want *domain.BudgetConsumption
	}{
		{
			name: "decrements and stays active",
			rows: pgxmock.NewRows([]string{"remaining_budget", "is_active"}).AddRow(int64(90), true),
			want: &domain.BudgetConsumption{RemainingBudget: 90, IsActive: true},
		},
		{
			name: "final claim deactivates",
			rows: pgxmock.NewRows([]string{"remaining_budget", "is_active"}).AddRow(int64(0), false),
			want: &domain.BudgetConsumption{RemainingBudget: 0, IsActive: false},
		},
		{
			name: "lost the race",
			rows: pgxmock.NewRows([]string{"remaining_budget", "is_active"}),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			id := uuid.New()
			mock.ExpectBegin()
			mock.ExpectQuery("UPDATE reward_events\\s+SET remaining_budget = remaining_budget - \\$1").
				WithArgs(int64(10), id).
				WillReturnRows(tt.rows)

			tx, err := mock.Begin(context.Background())
			require.NoError(t, err)

			got, err := NewRewardEventRepo(mock).ConsumeBudget(context.Background(), tx, id, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRewardClaimRepo_Exists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	eventID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(eventID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewRewardClaimRepo(mock).Exists(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRewardClaimRepo_Create_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := &domain.RewardClaim{ID: uuid.New(), EventID: uuid.New(), UserID: uuid.New(), TransactionID: uuid.New(), ClaimedAt: time.Now()}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reward_claims").
		WithArgs(c.ID, c.EventID, c.UserID, c.TransactionID, c.ClaimedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "reward_claims_event_id_user_id_key"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = NewRewardClaimRepo(mock).Create(context.Background(), tx, c)
	assert.True(t, errors.Is(err, ports.ErrConflict))
}

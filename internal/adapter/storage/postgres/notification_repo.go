package postgres

import (
	"context"

	"campus-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// NotificationRepo implements ports.NotificationRepository.
type NotificationRepo struct {
	pool Pool
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create inserts a notification, inside tx when given.
func (r *NotificationRepo) Create(ctx context.Context, tx pgx.Tx, n *domain.Notification) error {
	query := `INSERT INTO notifications (id, user_id, type, title, message, related_entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := on(r.pool, tx).Exec(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.RelatedEntityID, n.CreatedAt,
	)
	if err != nil {
		return translate("insert notification", err)
	}
	return nil
}

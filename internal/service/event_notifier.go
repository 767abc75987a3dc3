package service

import (
	"context"
	"encoding/json"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notifyRetryIntervals bounds redelivery of a single event to the broker.
var notifyRetryIntervals = []time.Duration{
	500 * time.Millisecond,
	2 * time.Second,
	5 * time.Second,
}

const notifyAttemptTimeout = 5 * time.Second

type eventNotifier struct {
	walletRepo ports.WalletRepository
	publisher  ports.EventPublisher
	retries    []time.Duration
	log        zerolog.Logger
}

// NewEventNotifier creates a notifier that resolves wallet owners and
// publishes events in the background.
func NewEventNotifier(walletRepo ports.WalletRepository, publisher ports.EventPublisher, log zerolog.Logger) ports.Notifier {
	return &eventNotifier{
		walletRepo: walletRepo,
		publisher:  publisher,
		retries:    notifyRetryIntervals,
		log:        log,
	}
}

// Notify never blocks the caller and never reports failure to it.
func (n *eventNotifier) Notify(_ context.Context, event domain.LedgerEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	go n.deliverWithRetries(event)
}

func (n *eventNotifier) deliverWithRetries(event domain.LedgerEvent) {
	event.UserIDs = n.resolveOwners(event)

	body, err := json.Marshal(event)
	if err != nil {
		n.log.Error().Err(err).Str("kind", string(event.Kind)).Msg("notify: failed to marshal event")
		return
	}

	for attempt := 0; attempt <= len(n.retries); attempt++ {
		if attempt > 0 {
			time.Sleep(n.retries[attempt-1])
		}

		ctx, cancel := context.WithTimeout(context.Background(), notifyAttemptTimeout)
		err = n.publisher.Publish(ctx, string(event.Kind), body)
		cancel()
		if err == nil {
			n.log.Debug().Str("kind", string(event.Kind)).Int("attempt", attempt+1).Msg("notify: published")
			return
		}
		n.log.Warn().Err(err).Str("kind", string(event.Kind)).Int("attempt", attempt+1).Msg("notify: publish failed")
	}

	n.log.Error().Str("kind", string(event.Kind)).Msg("notify: all retry attempts exhausted")
}

// resolveOwners maps wallet ids to owning users. The treasury has no user.
func (n *eventNotifier) resolveOwners(event domain.LedgerEvent) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(event.UserIDs)+len(event.WalletIDs))
	users := make([]uuid.UUID, 0, len(event.UserIDs)+len(event.WalletIDs))
	add := func(id uuid.UUID) {
		if id == uuid.Nil || id == domain.TreasuryOwnerID {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		users = append(users, id)
	}

	for _, id := range event.UserIDs {
		add(id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyAttemptTimeout)
	defer cancel()
	for _, walletID := range event.WalletIDs {
		if walletID == domain.TreasuryWalletID {
			continue
		}
		w, err := n.walletRepo.GetByID(ctx, walletID)
		if err != nil {
			n.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("notify: failed to resolve wallet owner")
			continue
		}
		if w == nil {
			continue
		}
		add(w.OwnerID)
	}
	return users
}

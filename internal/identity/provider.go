package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"privchat/internal/identity/repository"
	"privchat/internal/presence"
	"privchat/pkg/logger"
)

// Provider wires the users table and the redis presence tracker into the
// IdentityProvider port the chat usecase consumes. Last-seen is the only
// presence fact that gets persisted; online state lives in redis alone.
type Provider struct {
	users   *repository.UserRepository
	tracker *presence.Tracker
	logger  *logger.Logger
}

func NewProvider(users *repository.UserRepository, tracker *presence.Tracker, logger logger.Logger) *Provider {
	return &Provider{
		users:   users,
		tracker: tracker,
		logger:  &logger,
	}
}

func (p *Provider) ValidateUser(ctx context.Context, id uuid.UUID) (bool, error) {
	return p.users.UserExists(ctx, id)
}

func (p *Provider) LastSeen(ctx context.Context, id uuid.UUID) (*time.Time, error) {
	return p.users.GetLastSeen(ctx, id)
}

func (p *Provider) IsOnline(ctx context.Context, id uuid.UUID) (bool, error) {
	return p.tracker.IsOnline(ctx, id)
}

// Connected is called by the session layer on every client heartbeat.
func (p *Provider) Connected(ctx context.Context, id uuid.UUID) error {
	return p.tracker.Heartbeat(ctx, id)
}

// Disconnected drops the online flag and persists the last-seen timestamp.
func (p *Provider) Disconnected(ctx context.Context, id uuid.UUID) error {
	if err := p.tracker.MarkOffline(ctx, id); err != nil {
		p.logger.Warn("failed to drop presence flag", "user_id", id, "err", err)
	}
	return p.users.TouchLastSeen(ctx, id, time.Now().UTC())
}

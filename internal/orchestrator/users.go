package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// ResolveUser maps an identity-gateway subject to the local user row,
// creating it on first sight. The stored bearer token is refreshed whenever
// the caller presents a different one, so later agent work (provisioning,
// teardown) always acts with the owner's current credential.
func (s *Service) ResolveUser(ctx context.Context, externalID string, authToken string) (*queries.User, error) {
	user, err := s.store.UsersFindByExternalId(ctx, externalID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}

		user, err = s.store.UsersCreate(ctx, &queries.UsersCreateParams{
			ID:         uuid.New(),
			ExternalID: externalID,
			AuthToken:  authToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		s.logger.Info("user created", "user_id", user.ID, "external_id", externalID)
		return user, nil
	}

	if user.AuthToken != authToken {
		user, err = s.store.UsersUpdateAuthToken(ctx, &queries.UsersUpdateAuthTokenParams{
			ID:        user.ID,
			AuthToken: authToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to refresh user token: %w", err)
		}
	}

	return user, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/auth"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Identity is the authenticated caller, re-read from storage on every
// request. Only the user ID is taken from the token.
type Identity struct {
	ID    string
	Role  models.Role
	USN   string
	Email string
}

// Guard authenticates bearer tokens and enforces role and ownership rules.
type Guard struct {
	tokens *auth.TokenService
	repos  repomanager.Repositories
}

func NewGuard(tokens *auth.TokenService, repos repomanager.Repositories) *Guard {
	return &Guard{tokens: tokens, repos: repos}
}

// Authenticate resolves an Authorization header value to an Identity. Every
// failure is common.ErrUnauthenticated, wrapping the cause where there is one.
func (g *Guard) Authenticate(ctx context.Context, header string) (*Identity, error) {
	token, ok := strings.CutPrefix(header, common.BearerPrefix)
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, common.ErrUnauthenticated
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrInvalidToken)
	}

	user, err := g.repos.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	return &Identity{ID: user.ID, Role: user.Role, USN: user.USN, Email: user.Email}, nil
}

// RequireAdmin fails with common.ErrNotAdmin unless id holds the admin role.
func (g *Guard) RequireAdmin(id *Identity) error {
	if id == nil {
		return common.ErrUnauthenticated
	}
	if id.Role != models.RoleAdmin {
		return common.ErrNotAdmin
	}
	return nil
}

// RequireOwner additionally requires id to be the event's creator.
func (g *Guard) RequireOwner(id *Identity, event *models.Event) error {
	if err := g.RequireAdmin(id); err != nil {
		return err
	}
	if event.CreatedBy == "" || event.CreatedBy != id.ID {
		return common.ErrNotOwner
	}
	return nil
}

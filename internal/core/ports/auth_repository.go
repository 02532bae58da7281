package ports

import (
	"context"

	"github.com/loanpro/lending-system/internal/core/domain"
)

// AuthRepository defines the interface for back-office user persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

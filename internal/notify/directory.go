package notify

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ratehub/internal/repository"
)

// repoDirectory resolves recipients from the record store. A provider with
// no owning user is a missing recipient, not an error.
type repoDirectory struct {
	providers repository.ProviderRepository
	users     repository.UserRepository
}

func NewDirectory(providers repository.ProviderRepository, users repository.UserRepository) Directory {
	return &repoDirectory{providers: providers, users: users}
}

func (d *repoDirectory) GetProviderOwner(ctx context.Context, providerID int64) (string, error) {
	provider, err := d.providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return provider.UserID, nil
}

func (d *repoDirectory) GetModeratorIDs(ctx context.Context) ([]string, error) {
	return d.users.GetModeratorIDs(ctx)
}

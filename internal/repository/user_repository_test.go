package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ratehub/internal/models"
)

func setupUserRepo(t *testing.T) (*gorm.DB, UserRepository) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	db.Exec("DELETE FROM users")
	return db, NewUserRepository(db)
}

func TestUserRepository_FindByID(t *testing.T) {
	db, repo := setupUserRepo(t)

	u := models.User{Username: "dana", Email: "dana@example.com", Role: models.RoleModerator}
	require.NoError(t, db.Create(&u).Error)

	got, err := repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "dana", got.Username)
	assert.True(t, got.CanModerate())

	_, err = repo.FindByID(context.Background(), "missing-id")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_GetModeratorIDs(t *testing.T) {
	db, repo := setupUserRepo(t)

	mod := models.User{Username: "mod", Email: "mod@example.com", Role: models.RoleModerator}
	admin := models.User{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin}
	rater := models.User{Username: "rater", Email: "rater@example.com", Role: models.RoleUser}
	for _, u := range []*models.User{&mod, &admin, &rater} {
		require.NoError(t, db.Create(u).Error)
	}

	ids, err := repo.GetModeratorIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mod.ID, admin.ID}, ids)
}

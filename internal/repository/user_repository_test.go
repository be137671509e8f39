package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.User{ProviderUserID: "user_01", Email: "a@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Nil(t, created.BusinessID)

	got, err := repo.GetByProviderID(ctx, "user_01")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.Create(ctx, &model.User{ProviderUserID: "user_01", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.GetByProviderID(ctx, "user_02")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_Upsert(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &model.User{ProviderUserID: "user_01", Email: "old@example.com", Name: "Old"})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, &model.User{ProviderUserID: "user_01", Email: "new@example.com", Name: "New"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "new@example.com", second.Email)
	assert.Equal(t, "New", second.Name)
}

func TestUserRepository_LinkBusiness(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewUserRepository(db)
	ctx := context.Background()

	u, err := repo.Create(ctx, &model.User{ProviderUserID: "user_01", Email: "a@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.LinkBusiness(ctx, u.ID, "biz-1"))
	assert.ErrorIs(t, repo.LinkBusiness(ctx, u.ID, "biz-2"), ErrConcurrentUpdate)

	got, err := repo.GetByProviderID(ctx, "user_01")
	require.NoError(t, err)
	require.NotNil(t, got.BusinessID)
	assert.Equal(t, "biz-1", *got.BusinessID)

	require.NoError(t, repo.UpdateName(ctx, u.ID, "Jane"))
	assert.ErrorIs(t, repo.UpdateName(ctx, "missing", "x"), ErrNotFound)
}

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	upserted *model.User
	linked   string
	linkErr  error
}

func (f *fakeUsers) Upsert(_ context.Context, u *model.User) (*model.User, error) {
	cp := *u
	cp.ID = "u-1"
	f.upserted = &cp
	return &cp, nil
}

func (f *fakeUsers) LinkBusiness(_ context.Context, _, businessID string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.linked = businessID
	return nil
}

type fakeBusinesses map[string]*model.Business

func (f fakeBusinesses) GetByID(_ context.Context, id string) (*model.Business, error) {
	if b, ok := f[id]; ok {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	businesses := fakeBusinesses{"b-1": {ID: "b-1"}}

	t.Run("with business", func(t *testing.T) {
		users := &fakeUsers{}
		var out bytes.Buffer
		err := createUser(ctx, &out, users, businesses, createUserOptions{
			ProviderID: "user_01", Email: "owner@example.com", Name: "Owner", BusinessID: "b-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "user_01", users.upserted.ProviderUserID)
		assert.Equal(t, "b-1", users.linked)
		assert.Contains(t, out.String(), "linked to business b-1")
	})

	t.Run("unknown business", func(t *testing.T) {
		users := &fakeUsers{}
		err := createUser(ctx, &bytes.Buffer{}, users, businesses, createUserOptions{
			ProviderID: "user_01", Email: "owner@example.com", BusinessID: "missing",
		})
		assert.ErrorContains(t, err, "does not exist")
		assert.Nil(t, users.upserted)
	})

	t.Run("invalid email", func(t *testing.T) {
		err := createUser(ctx, &bytes.Buffer{}, &fakeUsers{}, businesses, createUserOptions{ProviderID: "user_01", Email: "nope"})
		assert.Error(t, err)
	})

	t.Run("already linked", func(t *testing.T) {
		users := &fakeUsers{linkErr: repository.ErrConcurrentUpdate}
		err := createUser(ctx, &bytes.Buffer{}, users, businesses, createUserOptions{
			ProviderID: "user_01", Email: "owner@example.com", BusinessID: "b-1",
		})
		assert.ErrorContains(t, err, "already linked")
	})
}

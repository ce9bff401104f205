package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestSubscribeReturnsAuthorWithPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fan := testhelpers.CreateUser(t, f.db, "fan")
	chef := testhelpers.CreateUser(t, f.db, "chef")
	for _, name := range []string{"one", "two", "three", "four"} {
		testhelpers.CreateRecipe(t, f.db, chef, name, nil)
	}

	sub, err := f.users.Subscribe(ctx, viewerOf(fan), chef.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, chef.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.EqualValues(t, 4, sub.RecipesCount)
	require.Len(t, sub.Recipes, 2)
	assert.Equal(t, "four", sub.Recipes[0].Name)
	assert.Equal(t, "three", sub.Recipes[1].Name)

	_, err = f.users.Subscribe(ctx, viewerOf(fan), chef.ID, 2)
	assert.ErrorIs(t, err, apperr.ErrAlreadyFollowing)

	_, err = f.users.Subscribe(ctx, viewerOf(fan), fan.ID, 2)
	assert.ErrorIs(t, err, apperr.ErrSelfFollow)
}

func TestSubscriptionsList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fan := testhelpers.CreateUser(t, f.db, "fan")
	a := testhelpers.CreateUser(t, f.db, "a")
	b := testhelpers.CreateUser(t, f.db, "b")
	c := testhelpers.CreateUser(t, f.db, "c")
	testhelpers.CreateRecipe(t, f.db, b, "b-soup", nil)

	require.NoError(t, f.follows.Add(ctx, fan.ID, b.ID))
	require.NoError(t, f.follows.Add(ctx, fan.ID, a.ID))
	require.NoError(t, f.follows.Add(ctx, c.ID, a.ID))

	page, err := f.users.Subscriptions(ctx, viewerOf(fan), types.PageRequest{Page: 1, Limit: 10}, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "b", page.Results[0].Username)
	assert.EqualValues(t, 1, page.Results[0].RecipesCount)
	assert.Equal(t, "a", page.Results[1].Username)
	assert.Empty(t, page.Results[1].Recipes)
	assert.NotNil(t, page.Results[1].Recipes)

	page, err = f.users.Subscriptions(ctx, viewerOf(fan), types.PageRequest{Page: 2, Limit: 1}, 3)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "a", page.Results[0].Username)

	_, err = f.users.Subscriptions(ctx, types.Anonymous(), types.PageRequest{Page: 1, Limit: 10}, 3)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
}

func TestUnsubscribeTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fan := testhelpers.CreateUser(t, f.db, "fan")
	chef := testhelpers.CreateUser(t, f.db, "chef")

	_, err := f.users.Subscribe(ctx, viewerOf(fan), chef.ID, 3)
	require.NoError(t, err)
	require.NoError(t, f.users.Unsubscribe(ctx, viewerOf(fan), chef.ID))
	assert.ErrorIs(t, f.users.Unsubscribe(ctx, viewerOf(fan), chef.ID), apperr.ErrNotFollowing)
	assert.ErrorIs(t, f.users.Unsubscribe(ctx, viewerOf(fan), fan.ID), apperr.ErrSelfUnfollow)
}

func TestUserProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fan := testhelpers.CreateUser(t, f.db, "fan")
	chef := testhelpers.CreateUser(t, f.db, "chef")
	require.NoError(t, f.follows.Add(ctx, fan.ID, chef.ID))

	profile, err := f.users.Get(ctx, viewerOf(fan), chef.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsSubscribed)
	assert.Equal(t, "chef@example.com", profile.Email)

	profile, err = f.users.Get(ctx, types.Anonymous(), chef.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)

	_, err = f.users.Get(ctx, viewerOf(fan), 404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	page, err := f.users.List(ctx, viewerOf(fan), types.PageRequest{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "fan", page.Results[0].Username)
}

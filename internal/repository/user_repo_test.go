package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/testutil"
)

func TestUserUpsertAndPhotos(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewDB(t))

	_, err := repo.GetByEmail(ctx, "a@u.edu")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.Upsert(ctx, &db.User{Email: "a@u.edu", Name: "A", Interests: []string{"chess"}}))
	require.NoError(t, repo.Upsert(ctx, &db.User{
		Email:          "a@u.edu",
		Name:           "Alice",
		Answers:        map[string]string{"pets": "yes"},
		TrustedContact: "mom@home.test",
	}))

	u, err := repo.GetByEmail(ctx, "a@u.edu")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Empty(t, u.Interests)
	assert.Equal(t, "yes", u.Answers["pets"])

	u, err = repo.AddPhoto(ctx, "a@u.edu", "https://img.test/1.jpg")
	require.NoError(t, err)
	u, err = repo.AddPhoto(ctx, "a@u.edu", "https://img.test/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.test/1.jpg"}, u.Photos)

	stored, err := repo.GetByEmail(ctx, "a@u.edu")
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/1.jpg", stored.PrimaryPhoto())

	_, err = repo.AddPhoto(ctx, "ghost@u.edu", "https://img.test/2.jpg")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestListDiscoverable(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	repo := repository.NewUserRepository(dbase)

	testutil.SeedUsers(t, dbase, "a@u.edu", "b@u.edu", "c@u.edu", "d@u.edu", "e@u.edu", "f@u.edu")
	testutil.Like(t, dbase, [2]string{"a@u.edu", "b@u.edu"})
	require.NoError(t, repository.NewBlockRepository(dbase).Block(ctx, "c@u.edu", "a@u.edu"))

	page1, next, err := repo.ListDiscoverable(ctx, "a@u.edu", nil, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page1, 2)
	assert.Equal(t, "d@u.edu", page1[0].Email)
	assert.Equal(t, "e@u.edu", page1[1].Email)

	page2, next, err := repo.ListDiscoverable(ctx, "a@u.edu", next, 2)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page2, 1)
	assert.Equal(t, "f@u.edu", page2[0].Email)

	profiles, err := repo.GetProfiles(ctx, []string{"f@u.edu", "b@u.edu", "nobody@u.edu"})
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "b@u.edu", profiles[0].Email)
}

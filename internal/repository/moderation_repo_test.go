package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/testutil"
)

func TestBlock_IdempotentAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewBlockRepository(testutil.NewDB(t))

	require.NoError(t, repo.Block(ctx, "a@u.edu", "b@u.edu"))
	require.NoError(t, repo.Block(ctx, "a@u.edu", "b@u.edu"))

	blocked, err := repo.ListBlocked(ctx, "a@u.edu")
	require.NoError(t, err)
	assert.Equal(t, []string{"b@u.edu"}, blocked)

	blockers, err := repo.ListBlockers(ctx, "b@u.edu")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@u.edu"}, blockers)

	st, err := repo.Status(ctx, "b@u.edu", "a@u.edu")
	require.NoError(t, err)
	assert.False(t, st.BlockedByMe)
	assert.True(t, st.BlockedMe)
	assert.True(t, st.Blocked())

	either, err := repo.BlockedEither(ctx, "b@u.edu", "a@u.edu")
	require.NoError(t, err)
	assert.True(t, either)

	require.NoError(t, repo.Unblock(ctx, "a@u.edu", "b@u.edu"))
	require.NoError(t, repo.Unblock(ctx, "a@u.edu", "b@u.edu"))
	either, err = repo.BlockedEither(ctx, "a@u.edu", "b@u.edu")
	require.NoError(t, err)
	assert.False(t, either)
}

func TestReport_DuplicateConfessionReport(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReportRepository(testutil.NewDB(t))
	cid := uuid.NewString()

	require.NoError(t, repo.Create(ctx, &db.Report{ID: uuid.NewString(), ReporterEmail: "r@u.edu", ConfessionID: &cid, Reason: "spam"}))
	err := repo.Create(ctx, &db.Report{ID: uuid.NewString(), ReporterEmail: "r@u.edu", ConfessionID: &cid, Reason: "spam"})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	has, err := repo.HasReportedConfession(ctx, "r@u.edu", cid)
	require.NoError(t, err)
	assert.True(t, has)

	// user-targeted reports do not collide on the confession index
	target := "x@u.edu"
	require.NoError(t, repo.Create(ctx, &db.Report{ID: uuid.NewString(), ReporterEmail: "r@u.edu", ReportedUserEmail: &target, Reason: "rude"}))
	require.NoError(t, repo.Create(ctx, &db.Report{ID: uuid.NewString(), ReporterEmail: "r@u.edu", ReportedUserEmail: &target, Reason: "rude"}))

	n, err := repo.CountForConfession(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSimilarity_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSimilarityRepository(testutil.NewDB(t))

	missing, err := repo.GetMany(ctx, []string{"a@u.edu--b@u.edu"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, repo.Save(ctx, &db.Similarity{RoomID: "a@u.edu--b@u.edu", Interests: []string{"chess"}}))
	require.NoError(t, repo.Save(ctx, &db.Similarity{
		RoomID:    "a@u.edu--b@u.edu",
		Interests: []string{"chess", "films"},
		Answers:   []db.SharedAnswer{{Question: "pets", Answer: "yes"}},
	}))

	got, err := repo.GetMany(ctx, []string{"a@u.edu--b@u.edu", "c@u.edu--d@u.edu"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"chess", "films"}, got["a@u.edu--b@u.edu"].Interests)
	assert.Equal(t, "yes", got["a@u.edu--b@u.edu"].Answers[0].Answer)

	require.NoError(t, repo.Delete(ctx, "a@u.edu--b@u.edu"))
	missing, err = repo.GetMany(ctx, []string{"a@u.edu--b@u.edu"})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSafetyEvents(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSafetyRepository(testutil.NewDB(t))
	lat, lng := 28.54, 77.27

	require.NoError(t, repo.RecordSafetyEvent(ctx, &db.SafetyEvent{
		ID: uuid.NewString(), Kind: db.SafetyEventLocation, UserEmail: "a@u.edu",
		TrustedContact: "mom@home.test", Latitude: &lat, Longitude: &lng,
	}))

	evs, err := repo.ListSafetyEvents(ctx, "a@u.edu", 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "mom@home.test", evs[0].TrustedContact)
	require.NotNil(t, evs[0].Latitude)
	assert.InDelta(t, lat, *evs[0].Latitude, 1e-9)
}

package matching_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/db"
	svcErr "github.com/oggyb/campusmatch/internal/errors"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/room"
	"github.com/oggyb/campusmatch/internal/service/matching"
	"github.com/oggyb/campusmatch/internal/testutil"
)

//
// Test helpers
//

const (
	alice = "alice@u.edu"
	bob   = "bob@u.edu"
	carol = "carol@u.edu"
	dave  = "dave@u.edu"
)

// seedMinimalTestData inserts a small, deterministic dataset.
//
// Dataset:
//   - Users: alice, bob, carol, dave
//   - Likes:
//   - alice <-> bob (mutual)
//   - alice <-> carol (mutual)
//   - dave -> alice (one-sided)
//
// This dataset allows us to test:
//   - mutual match detection and classification
//   - liked-you filtering
//   - cache counting correctness
func seedMinimalTestData(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	testutil.SeedUsers(t, gdb, alice, bob, carol, dave)
	testutil.Like(t, gdb,
		[2]string{alice, bob},
		[2]string{bob, alice},
		[2]string{alice, carol},
		[2]string{carol, alice},
		[2]string{dave, alice},
	)
}

// setupService wires an isolated DB + Redis into a matching service.
func setupService(t *testing.T) (*matching.Service, *app.AppContext) {
	t.Helper()
	appCtx := testutil.NewAppContext(t)
	seedMinimalTestData(t, appCtx.DB)
	return matching.NewService(appCtx), appCtx
}

func emails(ps []matching.Profile) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Email)
	}
	return out
}

func send(t *testing.T, gdb *gorm.DB, from, to string) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Message{RoomID: room.ID(from, to), Sender: from, Receiver: to, Text: "hi"}).Error)
}

//
// Tests
//

func TestGetMatches_EmptyInputs(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	res := svc.GetMatches(ctx, "")
	assert.NotNil(t, res.NewMatches)
	assert.Empty(t, res.NewMatches)
	assert.Empty(t, res.ActiveChats)

	// unknown user has an empty like-set
	res = svc.GetMatches(ctx, "nobody@u.edu")
	assert.Empty(t, res.NewMatches)
	assert.Empty(t, res.ActiveChats)
}

// TestGetMatches_Symmetric checks that a mutual like shows up on both sides.
func TestGetMatches_Symmetric(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	fromAlice := svc.GetMatches(ctx, alice)
	assert.ElementsMatch(t, []string{bob, carol}, emails(fromAlice.NewMatches))

	fromBob := svc.GetMatches(ctx, bob)
	assert.Equal(t, []string{alice}, emails(fromBob.NewMatches))
	assert.Equal(t, "https://img.test/alice.jpg", fromBob.NewMatches[0].Photo)
	assert.NotNil(t, fromBob.NewMatches[0].SimilarInterests)
	assert.NotNil(t, fromBob.NewMatches[0].SimilarAnswers)

	// dave's like is one-sided
	fromDave := svc.GetMatches(ctx, dave)
	assert.Empty(t, fromDave.NewMatches)
}

// TestGetMatches_Classification: one sender -> new match, two senders -> active chat.
// System messages never count.
func TestGetMatches_Classification(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	require.NoError(t, appCtx.DB.Create(&db.Message{
		RoomID: room.ID(alice, bob), Sender: db.SystemSender, Receiver: alice, Text: "You matched!",
	}).Error)
	send(t, appCtx.DB, alice, bob)

	res := svc.GetMatches(ctx, alice)
	assert.ElementsMatch(t, []string{bob, carol}, emails(res.NewMatches))
	assert.Empty(t, res.ActiveChats)

	send(t, appCtx.DB, bob, alice)
	res = svc.GetMatches(ctx, alice)
	assert.Equal(t, []string{carol}, emails(res.NewMatches))
	assert.Equal(t, []string{bob}, emails(res.ActiveChats))
}

func TestGetMatches_HidesBlocked(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	require.NoError(t, repository.NewBlockRepository(appCtx.DB).Block(ctx, carol, alice))

	res := svc.GetMatches(ctx, alice)
	assert.Equal(t, []string{bob}, emails(res.NewMatches))
}

// TestGetMatches_DegradesOnStoreError: a failing store yields two empty
// lists, whether it fails on the first query or midway through classification.
func TestGetMatches_DegradesOnStoreError(t *testing.T) {
	ctx := context.Background()

	t.Run("messages table missing", func(t *testing.T) {
		svc, appCtx := setupService(t)
		require.NoError(t, appCtx.DB.Migrator().DropTable(&db.Message{}))

		res := svc.GetMatches(ctx, alice)
		assert.NotNil(t, res.NewMatches)
		assert.NotNil(t, res.ActiveChats)
		assert.Empty(t, res.NewMatches)
		assert.Empty(t, res.ActiveChats)
	})

	t.Run("connection closed", func(t *testing.T) {
		svc, appCtx := setupService(t)
		sqlDB, err := appCtx.DB.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		res := svc.GetMatches(ctx, alice)
		assert.NotNil(t, res.NewMatches)
		assert.Empty(t, res.NewMatches)
		assert.Empty(t, res.ActiveChats)
	})
}

// TestLikeUser_MutualAndSimilarity ensures a like that completes a pair is
// reported as a match and stores what the two have in common.
func TestLikeUser_MutualAndSimilarity(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	users := repository.NewUserRepository(appCtx.DB)
	require.NoError(t, users.Upsert(ctx, &db.User{
		Email: alice, Name: "alice", Interests: []string{"Chess", "films"}, Answers: map[string]string{"pets": "yes", "night_owl": "no"},
	}))
	require.NoError(t, users.Upsert(ctx, &db.User{
		Email: dave, Name: "dave", Interests: []string{"chess", "hiking"}, Answers: map[string]string{"pets": "Yes", "night_owl": "yes"},
	}))

	matched, err := svc.LikeUser(ctx, alice, dave)
	require.NoError(t, err)
	assert.True(t, matched)

	// idempotent
	matched, err = svc.LikeUser(ctx, alice, dave)
	require.NoError(t, err)
	assert.True(t, matched)

	sims, err := repository.NewSimilarityRepository(appCtx.DB).GetMany(ctx, []string{room.ID(dave, alice)})
	require.NoError(t, err)
	sim, ok := sims[room.ID(dave, alice)]
	require.True(t, ok)
	assert.Equal(t, []string{"Chess"}, sim.Interests)
	assert.Equal(t, []db.SharedAnswer{{Question: "pets", Answer: "yes"}}, sim.Answers)

	res := svc.GetMatches(ctx, dave)
	require.Len(t, res.NewMatches, 1)
	assert.Equal(t, []string{"Chess"}, res.NewMatches[0].SimilarInterests)
}

func TestLikeUser_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.LikeUser(ctx, "", bob)
	assert.True(t, svcErr.Is(err, codes.InvalidArgument))

	_, err = svc.LikeUser(ctx, bob, bob)
	assert.True(t, svcErr.Is(err, codes.InvalidArgument))
}

func TestLikeUser_BlockedPairNotRecorded(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	require.NoError(t, repository.NewBlockRepository(appCtx.DB).Block(ctx, dave, bob))

	matched, err := svc.LikeUser(ctx, bob, dave)
	require.NoError(t, err)
	assert.False(t, matched)

	liked, err := repository.NewLikeRepository(appCtx.DB).HasLiked(ctx, bob, dave)
	require.NoError(t, err)
	assert.False(t, liked)
}

// TestListLikedYou checks that only one-sided likers are returned.
func TestListLikedYou(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	likers, next, err := svc.ListLikedYou(ctx, alice, nil)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likers, 1)
	assert.Equal(t, dave, likers[0].Email)
	assert.Equal(t, "dave", likers[0].Name)

	bad := "!!"
	_, _, err = svc.ListLikedYou(ctx, alice, &bad)
	assert.True(t, svcErr.Is(err, codes.InvalidArgument))
}

// TestCountLikedYouCache verifies counts are served from Redis after the first read.
func TestCountLikedYouCache(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// First call -> DB. bob and carol are mutual, only dave is pending.
	n, err := svc.CountLikedYou(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	cached, ok, err := appCtx.RedisCache.GetLikeCount(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), cached)

	// a new one-sided like bumps the cached value
	testutil.SeedUsers(t, appCtx.DB, "erin@u.edu")
	_, err = svc.LikeUser(ctx, "erin@u.edu", alice)
	require.NoError(t, err)

	cached, ok, err = appCtx.RedisCache.GetLikeCount(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), cached)

	// liking dave back takes him out of alice's count
	matched, err := svc.LikeUser(ctx, alice, dave)
	require.NoError(t, err)
	assert.True(t, matched)

	_, ok, err = appCtx.RedisCache.GetLikeCount(ctx, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = svc.CountLikedYou(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	likers, _, err := svc.ListLikedYou(ctx, alice, nil)
	require.NoError(t, err)
	assert.Len(t, likers, int(n))
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// dave liked alice only; everyone else is new to him
	profiles, next, err := svc.Discover(ctx, dave, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, profiles, 2)
	assert.Equal(t, bob, profiles[0].Email)
	assert.Equal(t, carol, profiles[1].Email)
	assert.NotNil(t, profiles[0].Interests)
}

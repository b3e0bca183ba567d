package feed_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/cohort"
	"github.com/oggyb/campusmatch/internal/db"
	svcErr "github.com/oggyb/campusmatch/internal/errors"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/server"
	"github.com/oggyb/campusmatch/internal/service/feed"
	"github.com/oggyb/campusmatch/internal/testutil"
)

const (
	alice = "alice@stanford.edu"
	bob   = "bob@stanford.edu"
	carol = "carol@mit.edu"
)

func setup(t *testing.T) (*feed.Service, *app.AppContext) {
	t.Helper()
	appCtx := testutil.NewAppContext(t)
	testutil.SeedUsers(t, appCtx.DB, alice, bob, carol)
	return feed.NewService(appCtx), appCtx
}

func TestCreate_ValidatesAndAssignsGroup(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.Create(ctx, "", "hello")
	assert.True(t, svcErr.Is(err, codes.InvalidArgument))
	_, err = svc.Create(ctx, alice, "  ")
	assert.True(t, svcErr.Is(err, codes.InvalidArgument))
	_, err = svc.Create(ctx, alice, strings.Repeat("x", 1001))
	assert.True(t, svcErr.Is(err, codes.InvalidArgument))

	c, err := svc.Create(ctx, alice, strings.Repeat("x", 1000))
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, cohort.GroupFor(alice), c.Group)
	assert.NotEqual(t, cohort.Default, c.Group)
	assert.Empty(t, c.Comments)
}

func TestList_ScopedAndPaged(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, alice, text)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, carol, "elsewhere")
	require.NoError(t, err)

	all := svc.List(ctx, "", 0, 0)
	assert.Equal(t, int64(4), all.Total)
	assert.Len(t, all.Confessions, 4)

	scoped := svc.List(ctx, bob, 0, 2)
	assert.Equal(t, int64(3), scoped.Total)
	require.Len(t, scoped.Confessions, 2)
	for _, c := range scoped.Confessions {
		assert.Equal(t, cohort.GroupFor(bob), c.Group)
	}

	rest := svc.List(ctx, bob, 2, 2)
	assert.Equal(t, int64(3), rest.Total)
	assert.Len(t, rest.Confessions, 1)

	// negative skip and oversized limit are clamped
	clamped := svc.List(ctx, "", -5, 1000)
	assert.Len(t, clamped.Confessions, 4)
}

func TestList_HidesBlockedAuthors(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setup(t)

	_, err := svc.Create(ctx, alice, "from alice")
	require.NoError(t, err)
	require.NoError(t, repository.NewBlockRepository(appCtx.DB).Block(ctx, alice, bob))

	// the author blocked the reader
	page := svc.List(ctx, bob, 0, 10)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Confessions)

	// the unscoped feed is unaffected
	assert.Equal(t, int64(1), svc.List(ctx, "", 0, 10).Total)
}

func TestReactionsAndComments(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	c, err := svc.Create(ctx, alice, "secret")
	require.NoError(t, err)

	_, err = svc.React(ctx, "missing", "😂", bob, feed.ActionAdd)
	assert.True(t, svcErr.Is(err, codes.NotFound))

	got, err := svc.React(ctx, c.ID, "😂", bob, feed.ActionAdd)
	require.NoError(t, err)
	got, err = svc.React(ctx, c.ID, "😂", bob, feed.ActionAdd)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"😂": {bob}}, got.Reactions)

	_, err = svc.React(ctx, c.ID, "😂", bob, "flip")
	assert.True(t, svcErr.Is(err, codes.InvalidArgument))

	got, err = svc.Comment(ctx, c.ID, carol, "", "same here")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	comment := got.Comments[0]
	assert.Equal(t, carol, comment.Email)
	assert.Equal(t, "carol", comment.Name)

	_, err = svc.CommentReact(ctx, c.ID, "nope", bob, feed.ActionAdd)
	assert.True(t, svcErr.Is(err, codes.NotFound))

	got, err = svc.CommentReact(ctx, c.ID, comment.ID, bob, feed.ActionAdd)
	require.NoError(t, err)
	assert.Equal(t, []string{bob}, got.Comments[0].Reactions)

	got, err = svc.CommentReact(ctx, c.ID, comment.ID, bob, feed.ActionRemove)
	require.NoError(t, err)
	assert.Empty(t, got.Comments[0].Reactions)

	got, err = svc.React(ctx, c.ID, "😂", bob, feed.ActionRemove)
	require.NoError(t, err)
	assert.Empty(t, got.Reactions)
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	return rec
}

// Every response that carries a confession must keep the author hidden.
func TestHTTP_NoAuthorInResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, appCtx := setup(t)
	r := server.NewRouter(testutil.DiscardLogger(), feed.NewRegistrar(appCtx))

	rec := do(r, http.MethodPost, "/api/confessions", `{"email":"alice@stanford.edu","text":"i like someone"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Confession feed.Confession `json:"confession"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Confession.ID

	bodies := []string{rec.Body.String()}
	for _, call := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/get-confessions?skip=0&limit=5", ""},
		{http.MethodPost, "/api/get-confessions", `{"email":"bob@stanford.edu"}`},
		{http.MethodPost, "/api/confessions/react", `{"confessionId":"` + id + `","emoji":"🔥","email":"bob@stanford.edu"}`},
		{http.MethodPost, "/api/confessions/comment", `{"confessionId":"` + id + `","email":"bob@stanford.edu","name":"Bob","text":"who?"}`},
	} {
		rec := do(r, call.method, call.path, call.body)
		require.Equal(t, http.StatusOK, rec.Code, call.path)
		bodies = append(bodies, rec.Body.String())
	}

	for _, body := range bodies {
		assert.NotContains(t, body, "userEmail")
		assert.NotContains(t, body, alice)
	}

	var page feed.Page
	require.NoError(t, json.Unmarshal([]byte(bodies[1]), &page))
	assert.Equal(t, int64(1), page.Total)

	rec = do(r, http.MethodPost, "/api/confessions", `{"email":"alice@stanford.edu","text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(r, http.MethodGet, "/api/get-confessions?limit=abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTP_RejectsIncompleteBodies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, appCtx := setup(t)
	c, err := svc.Create(context.Background(), alice, "hello")
	require.NoError(t, err)
	r := server.NewRouter(testutil.DiscardLogger(), feed.NewRegistrar(appCtx))

	for _, call := range []struct{ path, body string }{
		{"/api/confessions", `{"text":"no author"}`},
		{"/api/confessions/react", `{"confessionId":"` + c.ID + `","email":"bob@stanford.edu"}`},
		{"/api/confessions/react", `{"confessionId":"` + c.ID + `","emoji":"🔥","email":"bob@stanford.edu","action":"toggle"}`},
		{"/api/confessions/comment", `{"confessionId":"` + c.ID + `","email":"bob@stanford.edu"}`},
		{"/api/confessions/comment/react", `{"confessionId":"` + c.ID + `","email":"bob@stanford.edu"}`},
	} {
		rec := do(r, http.MethodPost, call.path, call.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, call.body)
		assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String(), call.body)
	}

	// whitespace passes binding and is rejected by the service with its own message
	rec := do(r, http.MethodPost, "/api/confessions", `{"email":"alice@stanford.edu","text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"text must be between 1 and 1000 characters"}`, rec.Body.String())
}

func TestList_DegradesToEmptyPageOnStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	svc, appCtx := setup(t)
	_, err := svc.Create(ctx, alice, "before the outage")
	require.NoError(t, err)

	require.NoError(t, appCtx.DB.Migrator().DropTable(&db.Confession{}))

	for _, requester := range []string{"", bob} {
		page := svc.List(ctx, requester, 0, 10)
		assert.NotNil(t, page.Confessions, requester)
		assert.Empty(t, page.Confessions, requester)
		assert.Zero(t, page.Total, requester)
	}

	r := server.NewRouter(testutil.DiscardLogger(), feed.NewRegistrar(appCtx))
	rec := do(r, http.MethodGet, "/api/get-confessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"confessions":[],"total":0}`, rec.Body.String())

	rec = do(r, http.MethodPost, "/api/get-confessions", `{"email":"bob@stanford.edu"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"confessions":[],"total":0}`, rec.Body.String())
}

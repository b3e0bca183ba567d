package matching

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/db"
	svcErr "github.com/oggyb/campusmatch/internal/errors"
	"github.com/oggyb/campusmatch/internal/logger"
	"github.com/oggyb/campusmatch/internal/metrics"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/room"
	"github.com/oggyb/campusmatch/internal/utils/pagination"
)

const (
	// LikedYouPageSize is the fixed page size of ListLikedYou.
	LikedYouPageSize = 10

	defaultDiscoverLimit = 10
	maxDiscoverLimit     = 50

	// activeChatSenders is how many distinct human senders turn a match into an active chat.
	activeChatSenders = 2
)

// Profile is the public projection of a matched user.
type Profile struct {
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Photo            string            `json:"photo"`
	SimilarInterests []string          `json:"similarInterests"`
	SimilarAnswers   []db.SharedAnswer `json:"similarAnswers"`
}

// Matches splits mutual likes by conversation state.
type Matches struct {
	NewMatches  []Profile `json:"newMatches"`
	ActiveChats []Profile `json:"activeChats"`
}

func emptyMatches() Matches {
	return Matches{NewMatches: []Profile{}, ActiveChats: []Profile{}}
}

// Liker is one entry of the liked-you list.
type Liker struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Photo   string `json:"photo"`
	LikedAt int64  `json:"likedAt"`
}

// Candidate is a discoverable profile.
type Candidate struct {
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
	Photos    []string `json:"photos"`
}

// Service resolves likes into matches.
// It contains the business logic on top of repository and cache layers.
type Service struct {
	appCtx     *app.AppContext
	likes      *repository.LikeRepository
	users      *repository.UserRepository
	messages   *repository.MessageRepository
	similarity *repository.SimilarityRepository
	blocks     *repository.BlockRepository
}

// NewService creates a matching service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via the like, user, message, similarity and block repositories)
//   - RedisCache for liked-you counters
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		likes:      repository.NewLikeRepository(appCtx.DB),
		users:      repository.NewUserRepository(appCtx.DB),
		messages:   repository.NewMessageRepository(appCtx.DB),
		similarity: repository.NewSimilarityRepository(appCtx.DB),
		blocks:     repository.NewBlockRepository(appCtx.DB),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// GetMatches returns the requester's mutual matches split into new matches
// and active chats.
//
// Behavior:
//   - Empty email or empty like-set yields two empty lists.
//   - Counterparties blocked in either direction are dropped.
//   - Classification counts distinct non-system senders in the pair's room
//     on every call; nothing is cached.
//   - Any persistence error degrades to two empty lists.
//
// Example:
//
//	svc.GetMatches(ctx, "2022001@iiitd.ac.in")
func (s *Service) GetMatches(ctx context.Context, email string) Matches {
	log := s.log(ctx)
	if email == "" {
		return emptyMatches()
	}

	size, err := s.likes.LikeSetSize(ctx, email)
	if err != nil {
		log.Error("LikeSetSize failed", "email", email, "err", err)
		return emptyMatches()
	}
	if size == 0 {
		return emptyMatches()
	}

	mutual, err := s.likes.MutualMatches(ctx, email)
	if err != nil {
		log.Error("MutualMatches failed", "email", email, "err", err)
		return emptyMatches()
	}

	candidates := make([]string, 0, len(mutual))
	seen := make(map[string]struct{}, len(mutual))
	for _, other := range mutual {
		if _, dup := seen[other]; dup || other == email {
			continue
		}
		seen[other] = struct{}{}

		blocked, err := s.blocks.BlockedEither(ctx, email, other)
		if err != nil {
			log.Error("BlockedEither failed", "email", email, "other", other, "err", err)
			return emptyMatches()
		}
		if !blocked {
			candidates = append(candidates, other)
		}
	}
	if len(candidates) == 0 {
		return emptyMatches()
	}

	users, err := s.users.GetProfiles(ctx, candidates)
	if err != nil {
		log.Error("GetProfiles failed", "err", err)
		return emptyMatches()
	}

	rooms := make([]string, 0, len(users))
	for _, u := range users {
		rooms = append(rooms, room.ID(email, u.Email))
	}
	sims, err := s.similarity.GetMany(ctx, rooms)
	if err != nil {
		log.Error("similarity lookup failed", "err", err)
		return emptyMatches()
	}

	out := emptyMatches()
	for i, u := range users {
		senders, err := s.messages.CountDistinctSenders(ctx, rooms[i])
		if err != nil {
			log.Error("CountDistinctSenders failed", "room", rooms[i], "err", err)
			return emptyMatches()
		}

		p := Profile{
			Name:             u.Name,
			Email:            u.Email,
			Photo:            u.PrimaryPhoto(),
			SimilarInterests: []string{},
			SimilarAnswers:   []db.SharedAnswer{},
		}
		if sim, ok := sims[rooms[i]]; ok {
			if sim.Interests != nil {
				p.SimilarInterests = sim.Interests
			}
			if sim.Answers != nil {
				p.SimilarAnswers = sim.Answers
			}
		}

		if senders >= activeChatSenders {
			out.ActiveChats = append(out.ActiveChats, p)
		} else {
			out.NewMatches = append(out.NewMatches, p)
		}
	}

	metrics.MatchesServed.WithLabelValues("new").Add(float64(len(out.NewMatches)))
	metrics.MatchesServed.WithLabelValues("active").Add(float64(len(out.ActiveChats)))
	log.Debug("GetMatches result", "email", email, "new", len(out.NewMatches), "active", len(out.ActiveChats))
	return out
}

// LikeUser records liker -> liked and reports whether the pair is now mutual.
//
// Behavior:
//   - Validates both emails (must be present and different).
//   - A pair blocked in either direction is silently not recorded.
//   - Idempotent: liking twice changes nothing.
//   - A new one-sided like bumps the liked user's cached counter.
//   - When the like completes a match, the liker's counter is dropped (the
//     returned like no longer counts) and the similarity side record is stored.
//
// Example:
//
//	svc.LikeUser(ctx, "a@uni.edu", "b@uni.edu")
func (s *Service) LikeUser(ctx context.Context, liker, liked string) (bool, error) {
	log := s.log(ctx)
	log.Debug("LikeUser called", "liker", liker, "liked", liked)

	if liker == "" || liked == "" {
		return false, svcErr.InvalidArgument("currentUserEmail and likedUserEmail are required")
	}
	if liker == liked {
		return false, svcErr.InvalidArgument("cannot like yourself")
	}

	blocked, err := s.blocks.BlockedEither(ctx, liker, liked)
	if err != nil {
		return false, svcErr.Map(err)
	}
	if blocked {
		log.Debug("like suppressed for blocked pair", "liker", liker, "liked", liked)
		return false, nil
	}

	created, err := s.likes.AddLike(ctx, liker, liked)
	if err != nil {
		log.Error("AddLike failed", "err", err)
		return false, svcErr.Map(err)
	}

	// check if liked also liked liker -> mutual
	matched, err := s.likes.HasLiked(ctx, liked, liker)
	if err != nil {
		return false, svcErr.Map(err)
	}
	if !created {
		return matched, nil
	}

	if !matched {
		if err := s.appCtx.RedisCache.IncrLikeCount(ctx, liked); err != nil {
			log.Warn("like counter update failed", "email", liked, "err", err)
		}
		return false, nil
	}

	// liked's earlier like is no longer pending for liker
	if err := s.appCtx.RedisCache.InvalidateLikeCounts(ctx, liker); err != nil {
		log.Warn("like counter invalidation failed", "email", liker, "err", err)
	}
	if err := s.storeSimilarity(ctx, liker, liked); err != nil {
		log.Warn("similarity not stored", "liker", liker, "liked", liked, "err", err)
	}
	return true, nil
}

func (s *Service) storeSimilarity(ctx context.Context, a, b string) error {
	ua, err := s.users.GetByEmail(ctx, a)
	if err != nil {
		return err
	}
	ub, err := s.users.GetByEmail(ctx, b)
	if err != nil {
		return err
	}
	interests, answers := Similar(ua, ub)
	return s.similarity.Save(ctx, &db.Similarity{
		RoomID:    room.ID(a, b),
		Interests: interests,
		Answers:   answers,
	})
}

// Similar returns the interests both users list (case-insensitive, in a's
// order) and the onboarding questions they answered identically, sorted by question.
func Similar(a, b *db.User) ([]string, []db.SharedAnswer) {
	theirs := make(map[string]struct{}, len(b.Interests))
	for _, in := range b.Interests {
		theirs[strings.ToLower(strings.TrimSpace(in))] = struct{}{}
	}
	interests := []string{}
	seen := map[string]struct{}{}
	for _, in := range a.Interests {
		key := strings.ToLower(strings.TrimSpace(in))
		if _, ok := theirs[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		interests = append(interests, in)
	}

	answers := []db.SharedAnswer{}
	for q, ans := range a.Answers {
		if other, ok := b.Answers[q]; ok && ans != "" && strings.EqualFold(ans, other) {
			answers = append(answers, db.SharedAnswer{Question: q, Answer: ans})
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].Question < answers[j].Question })
	return interests, answers
}

// ListLikedYou returns users who liked email and have not been liked back.
//
// Behavior:
//   - Excludes mutual likes and blocked pairs.
//   - Newest first, LikedYouPageSize per page.
//   - Supports cursor-based pagination with paginationToken.
func (s *Service) ListLikedYou(ctx context.Context, email string, paginationToken *string) ([]Liker, *string, error) {
	s.log(ctx).Debug("ListLikedYou called", "email", email)
	if email == "" {
		return nil, nil, svcErr.InvalidArgument("email is required")
	}

	likes, next, err := s.likes.GetNewLikers(ctx, email, paginationToken, LikedYouPageSize)
	if err != nil {
		if isTokenErr(err) {
			return nil, nil, svcErr.InvalidArgument(err.Error())
		}
		s.log(ctx).Error("GetNewLikers failed", "err", err)
		return nil, nil, svcErr.Map(err)
	}

	emails := make([]string, 0, len(likes))
	for _, l := range likes {
		emails = append(emails, l.LikerEmail)
	}
	users, err := s.users.GetProfiles(ctx, emails)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	byEmail := make(map[string]db.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}

	out := make([]Liker, 0, len(likes))
	for _, l := range likes {
		u := byEmail[l.LikerEmail]
		out = append(out, Liker{
			Email:   l.LikerEmail,
			Name:    u.Name,
			Photo:   u.PrimaryPhoto(),
			LikedAt: l.CreatedAt.UnixMilli(),
		})
	}
	return out, next, nil
}

// CountLikedYou returns how many users liked email without being liked back,
// i.e. the total ListLikedYou pages through.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:<email>), refreshing the TTL.
//  2. On a miss, falls back to DB via repository.CountLikers.
//  3. On DB fetch, stores the value in Redis with a 1h TTL.
func (s *Service) CountLikedYou(ctx context.Context, email string) (uint64, error) {
	if email == "" {
		return 0, svcErr.InvalidArgument("email is required")
	}

	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, email); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.log(ctx).Warn("like counter read failed", "email", email, "err", err)
	}

	count, err := s.likes.CountLikers(ctx, email)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetLikeCount(ctx, email, uint64(count))
	return uint64(count), nil
}

// Discover lists profiles email has not liked yet, blocked pairs excluded.
// limit defaults to 10 and is capped at 50.
func (s *Service) Discover(ctx context.Context, email string, paginationToken *string, limit int) ([]Candidate, *string, error) {
	if email == "" {
		return nil, nil, svcErr.InvalidArgument("email is required")
	}
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}
	if limit > maxDiscoverLimit {
		limit = maxDiscoverLimit
	}

	users, next, err := s.users.ListDiscoverable(ctx, email, paginationToken, limit)
	if err != nil {
		if isTokenErr(err) {
			return nil, nil, svcErr.InvalidArgument(err.Error())
		}
		return nil, nil, svcErr.Map(err)
	}

	out := make([]Candidate, 0, len(users))
	for _, u := range users {
		out = append(out, Candidate{
			Email:     u.Email,
			Name:      u.Name,
			Bio:       u.Bio,
			Interests: nonNil(u.Interests),
			Photos:    nonNil(u.Photos),
		})
	}
	return out, next, nil
}

func isTokenErr(err error) bool {
	return errors.Is(err, pagination.ErrInvalidToken)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

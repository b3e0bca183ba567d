package feed

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/cohort"
	"github.com/oggyb/campusmatch/internal/db"
	svcErr "github.com/oggyb/campusmatch/internal/errors"
	"github.com/oggyb/campusmatch/internal/logger"
	"github.com/oggyb/campusmatch/internal/repository"
)

const (
	maxConfessionLen = 1000
	maxCommentLen    = 500

	defaultLimit = 10
	maxLimit     = 50
)

// Reaction actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Comment is a reply in a confession thread. Comments are signed.
type Comment struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Reactions []string  `json:"reactions"`
}

// Confession is the client view of a stored confession. It has no author field.
type Confession struct {
	ID        string              `json:"id"`
	Text      string              `json:"text"`
	Group     string              `json:"group"`
	CreatedAt time.Time           `json:"createdAt"`
	Reactions map[string][]string `json:"reactions"`
	Comments  []Comment           `json:"comments"`
}

func toView(c *db.Confession) Confession {
	reactions := map[string][]string{}
	for _, r := range c.Reactions {
		reactions[r.Emoji] = append(reactions[r.Emoji], r.UserEmail)
	}
	for _, emails := range reactions {
		sort.Strings(emails)
	}

	comments := make([]Comment, 0, len(c.Comments))
	for _, cm := range c.Comments {
		reactedBy := make([]string, 0, len(cm.Reactions))
		for _, r := range cm.Reactions {
			reactedBy = append(reactedBy, r.UserEmail)
		}
		comments = append(comments, Comment{
			ID:        cm.ID,
			Email:     cm.UserEmail,
			Name:      cm.UserName,
			Text:      cm.Text,
			CreatedAt: cm.CreatedAt,
			Reactions: reactedBy,
		})
	}

	return Confession{
		ID:        c.ID,
		Text:      c.Text,
		Group:     c.Group,
		CreatedAt: c.CreatedAt,
		Reactions: reactions,
		Comments:  comments,
	}
}

// Page is one slice of the feed plus the total so clients know when to stop.
type Page struct {
	Confessions []Confession `json:"confessions"`
	Total       int64        `json:"total"`
}

// Service serves the anonymous confession feed.
type Service struct {
	appCtx      *app.AppContext
	confessions *repository.ConfessionRepository
	blocks      *repository.BlockRepository
	users       *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		confessions: repository.NewConfessionRepository(appCtx.DB),
		blocks:      repository.NewBlockRepository(appCtx.DB),
		users:       repository.NewUserRepository(appCtx.DB),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// Create posts a confession under the author's group. The author is kept
// server-side only.
func (s *Service) Create(ctx context.Context, email, text string) (*Confession, error) {
	text = strings.TrimSpace(text)
	if email == "" {
		return nil, svcErr.InvalidArgument("email is required")
	}
	if text == "" || utf8.RuneCountInString(text) > maxConfessionLen {
		return nil, svcErr.InvalidArgument("text must be between 1 and 1000 characters")
	}

	c := &db.Confession{
		ID:        uuid.NewString(),
		Text:      text,
		Group:     cohort.GroupFor(email),
		UserEmail: email,
	}
	if err := s.confessions.Create(ctx, c); err != nil {
		s.log(ctx).Error("confession create failed", "err", err)
		return nil, svcErr.Map(err)
	}
	s.log(ctx).Info("confession posted", "id", c.ID, "group", c.Group)
	view := toView(c)
	return &view, nil
}

// List pages the feed newest first.
//
// Behavior:
//   - requester == "" lists every group.
//   - Otherwise only the requester's group is listed and confessions by users
//     blocked in either direction are hidden.
//   - limit defaults to 10 and is capped at 50; negative skip is treated as 0.
//   - Any persistence error degrades to an empty page with total 0.
func (s *Service) List(ctx context.Context, requester string, skip, limit int) Page {
	empty := Page{Confessions: []Confession{}}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var f repository.ConfessionFilter
	if requester != "" {
		group := cohort.GroupFor(requester)
		f.Group = &group

		hidden, err := s.hiddenAuthors(ctx, requester)
		if err != nil {
			s.log(ctx).Error("feed block lookup failed", "err", err)
			return empty
		}
		f.ExcludeAuthors = hidden
	}

	rows, total, err := s.confessions.List(ctx, f, skip, limit)
	if err != nil {
		s.log(ctx).Error("feed list failed", "err", err)
		return empty
	}

	page := Page{Confessions: make([]Confession, 0, len(rows)), Total: total}
	for i := range rows {
		page.Confessions = append(page.Confessions, toView(&rows[i]))
	}
	return page
}

func (s *Service) hiddenAuthors(ctx context.Context, email string) ([]string, error) {
	blocked, err := s.blocks.ListBlocked(ctx, email)
	if err != nil {
		return nil, err
	}
	blockers, err := s.blocks.ListBlockers(ctx, email)
	if err != nil {
		return nil, err
	}
	return append(blocked, blockers...), nil
}

// React adds or removes email's emoji on a confession.
func (s *Service) React(ctx context.Context, confessionID, emoji, email, action string) (*Confession, error) {
	if confessionID == "" || emoji == "" || email == "" {
		return nil, svcErr.InvalidArgument("confessionId, emoji and email are required")
	}
	if err := s.mustExist(ctx, confessionID); err != nil {
		return nil, err
	}

	var err error
	switch action {
	case ActionAdd, "":
		err = s.confessions.AddReaction(ctx, confessionID, emoji, email)
	case ActionRemove:
		err = s.confessions.RemoveReaction(ctx, confessionID, emoji, email)
	default:
		return nil, svcErr.InvalidArgument("action must be add or remove")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return s.get(ctx, confessionID)
}

// Comment appends a signed comment. An empty name falls back to the
// commenter's profile name.
func (s *Service) Comment(ctx context.Context, confessionID, email, name, text string) (*Confession, error) {
	text = strings.TrimSpace(text)
	if confessionID == "" || email == "" {
		return nil, svcErr.InvalidArgument("confessionId and email are required")
	}
	if text == "" || utf8.RuneCountInString(text) > maxCommentLen {
		return nil, svcErr.InvalidArgument("text must be between 1 and 500 characters")
	}
	if err := s.mustExist(ctx, confessionID); err != nil {
		return nil, err
	}

	if name == "" {
		if u, err := s.users.GetByEmail(ctx, email); err == nil {
			name = u.Name
		}
	}

	err := s.confessions.AddComment(ctx, &db.Comment{
		ID:           uuid.NewString(),
		ConfessionID: confessionID,
		UserEmail:    email,
		UserName:     name,
		Text:         text,
	})
	if err != nil {
		s.log(ctx).Error("comment create failed", "confession", confessionID, "err", err)
		return nil, svcErr.Map(err)
	}
	return s.get(ctx, confessionID)
}

// CommentReact toggles email's reaction on a comment inside confessionID's thread.
func (s *Service) CommentReact(ctx context.Context, confessionID, commentID, email, action string) (*Confession, error) {
	if confessionID == "" || commentID == "" || email == "" {
		return nil, svcErr.InvalidArgument("confessionId, commentId and email are required")
	}
	ok, err := s.confessions.CommentBelongs(ctx, confessionID, commentID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !ok {
		return nil, svcErr.NotFound("comment not found")
	}

	switch action {
	case ActionAdd, "":
		err = s.confessions.AddCommentReaction(ctx, commentID, email)
	case ActionRemove:
		err = s.confessions.RemoveCommentReaction(ctx, commentID, email)
	default:
		return nil, svcErr.InvalidArgument("action must be add or remove")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return s.get(ctx, confessionID)
}

func (s *Service) mustExist(ctx context.Context, id string) error {
	ok, err := s.confessions.Exists(ctx, id)
	if err != nil {
		return svcErr.Map(err)
	}
	if !ok {
		return svcErr.NotFound("confession not found")
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*Confession, error) {
	c, err := s.confessions.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("confession not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	view := toView(c)
	return &view, nil
}

package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/db"
	svcErr "github.com/oggyb/campusmatch/internal/errors"
	"github.com/oggyb/campusmatch/internal/logger"
	"github.com/oggyb/campusmatch/internal/repository"
)

// UpsertRequest carries onboarding or edit fields. Nil fields keep the stored value.
type UpsertRequest struct {
	Email          string            `json:"email" binding:"required"`
	Name           *string           `json:"name"`
	Bio            *string           `json:"bio"`
	Interests      []string          `json:"interests"`
	Photos         []string          `json:"photos" binding:"omitempty,dive,http_url"`
	Answers        map[string]string `json:"answers"`
	TrustedContact *string           `json:"trustedContact"`
}

// Profile is what other users see. The owner also gets TrustedContact and
// BlockedUsers.
type Profile struct {
	Email          string            `json:"email"`
	Name           string            `json:"name"`
	Bio            string            `json:"bio"`
	Interests      []string          `json:"interests"`
	Photos         []string          `json:"photos"`
	Answers        map[string]string `json:"answers"`
	CreatedAt      time.Time         `json:"createdAt"`
	TrustedContact *string           `json:"trustedContact,omitempty"`
	BlockedUsers   []string          `json:"blockedUsers,omitempty"`
}

func public(u *db.User) *Profile {
	p := &Profile{
		Email:     u.Email,
		Name:      u.Name,
		Bio:       u.Bio,
		Interests: u.Interests,
		Photos:    u.Photos,
		Answers:   u.Answers,
		CreatedAt: u.CreatedAt,
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
	if p.Answers == nil {
		p.Answers = map[string]string{}
	}
	return p
}

// Service manages profiles.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	blocks *repository.BlockRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		blocks: repository.NewBlockRepository(appCtx.DB),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// Upsert creates or edits a profile and returns the owner's view of it.
//
// Behavior:
//   - Email is required; a new profile also needs a name.
//   - Provided fields replace the stored ones; omitted fields are kept.
//   - Photo URLs must be absolute http(s) URLs and are deduplicated in order.
//   - The trusted contact cannot be the user themselves.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*Profile, error) {
	if req.Email == "" {
		return nil, svcErr.InvalidArgument("email is required")
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			return nil, svcErr.InvalidArgument("name is required")
		}
		u = &db.User{Email: req.Email}
	case err != nil:
		return nil, svcErr.Map(err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, svcErr.InvalidArgument("name cannot be empty")
		}
		u.Name = name
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Interests != nil {
		u.Interests = dedupe(req.Interests)
	}
	if req.Photos != nil {
		for _, p := range req.Photos {
			if !validPhotoURL(p) {
				return nil, svcErr.InvalidArgument("photos must be http(s) URLs")
			}
		}
		u.Photos = dedupe(req.Photos)
	}
	if req.Answers != nil {
		u.Answers = req.Answers
	}
	if req.TrustedContact != nil {
		tc := strings.TrimSpace(*req.TrustedContact)
		if tc == req.Email {
			return nil, svcErr.InvalidArgument("trusted contact must be someone else")
		}
		u.TrustedContact = tc
	}

	u.UpdatedAt = time.Time{}
	if err := s.users.Upsert(ctx, u); err != nil {
		s.log(ctx).Error("profile upsert failed", "email", req.Email, "err", err)
		return nil, svcErr.Map(err)
	}
	return s.Get(ctx, req.Email, req.Email)
}

// Get returns email's profile as viewer sees it. Users blocked in either
// direction see NotFound, same as a missing profile.
func (s *Service) Get(ctx context.Context, email, viewer string) (*Profile, error) {
	if email == "" {
		return nil, svcErr.InvalidArgument("email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("profile not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	p := public(u)
	if viewer != email {
		if viewer != "" {
			blocked, err := s.blocks.BlockedEither(ctx, email, viewer)
			if err != nil {
				return nil, svcErr.Map(err)
			}
			if blocked {
				return nil, svcErr.NotFound("profile not found")
			}
		}
		return p, nil
	}

	blocked, err := s.blocks.ListBlocked(ctx, email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if blocked == nil {
		blocked = []string{}
	}
	tc := u.TrustedContact
	p.TrustedContact = &tc
	p.BlockedUsers = blocked
	return p, nil
}

// AddPhoto appends a photo URL. Adding a URL twice is a no-op.
func (s *Service) AddPhoto(ctx context.Context, email, photoURL string) (*Profile, error) {
	if email == "" || photoURL == "" {
		return nil, svcErr.InvalidArgument("email and url are required")
	}
	if !validPhotoURL(photoURL) {
		return nil, svcErr.InvalidArgument("url must be an http(s) URL")
	}
	u, err := s.users.AddPhoto(ctx, email, photoURL)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("profile not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return public(u), nil
}

// photoURLs applies the same rule as the HTTP binding to service callers.
var photoURLs = validator.New()

func validPhotoURL(raw string) bool {
	return photoURLs.Var(raw, "required,http_url") == nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

package moderation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/db"
	svcErr "github.com/oggyb/campusmatch/internal/errors"
	"github.com/oggyb/campusmatch/internal/logger"
	"github.com/oggyb/campusmatch/internal/metrics"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/room"
)

// ConfessionReportThreshold is the report count at which a confession is deleted.
const ConfessionReportThreshold = 10

const (
	defaultSafetyEventLimit = 20
	maxSafetyEventLimit     = 100
)

// ReportRequest targets exactly one of a user or a confession.
type ReportRequest struct {
	ReporterEmail     string  `json:"reporterEmail" binding:"required"`
	ReportedUserEmail *string `json:"reportedUserEmail"`
	ConfessionID      *string `json:"confessionId"`
	Reason            string  `json:"reason" binding:"required"`
	Details           string  `json:"details"`
}

// ReportResult tells the caller what the report triggered.
type ReportResult struct {
	ReportID          string `json:"reportId"`
	ConfessionDeleted bool   `json:"confessionDeleted,omitempty"`
	MessagesDeleted   int64  `json:"messagesDeleted,omitempty"`
}

// BlockStatus is the pairwise block state from user1's point of view.
type BlockStatus struct {
	Blocked     bool `json:"blocked"`
	BlockedByMe bool `json:"blockedByMe"`
	BlockedMe   bool `json:"blockedMe"`
}

// SafetyEvent is the client view of a recorded panic or location share.
type SafetyEvent struct {
	ID             string   `json:"id"`
	Kind           string   `json:"kind"`
	TrustedContact string   `json:"trustedContact"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Note           string   `json:"note,omitempty"`
	CreatedAt      int64    `json:"createdAt"`
}

// Service enforces blocks and reports and records safety events.
type Service struct {
	appCtx      *app.AppContext
	blocks      *repository.BlockRepository
	reports     *repository.ReportRepository
	confessions *repository.ConfessionRepository
	users       *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		blocks:      repository.NewBlockRepository(appCtx.DB),
		reports:     repository.NewReportRepository(appCtx.DB),
		confessions: repository.NewConfessionRepository(appCtx.DB),
		users:       repository.NewUserRepository(appCtx.DB),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

func validatePair(me, other string) error {
	if me == "" || other == "" {
		return svcErr.InvalidArgument("currentUserEmail and blockedUserEmail are required")
	}
	if me == other {
		return svcErr.InvalidArgument("cannot block yourself")
	}
	return nil
}

// Block adds other to me's block-set. Blocking twice is a no-op.
func (s *Service) Block(ctx context.Context, me, other string) error {
	if err := validatePair(me, other); err != nil {
		return err
	}
	if err := s.blocks.Block(ctx, me, other); err != nil {
		return svcErr.Map(err)
	}
	s.invalidateCounts(ctx, me, other)
	return nil
}

// Unblock removes other from me's block-set. Data removed by a report stays removed.
func (s *Service) Unblock(ctx context.Context, me, other string) error {
	if err := validatePair(me, other); err != nil {
		return err
	}
	if err := s.blocks.Unblock(ctx, me, other); err != nil {
		return svcErr.Map(err)
	}
	s.invalidateCounts(ctx, me, other)
	return nil
}

// ListBlocked returns everyone me has blocked.
func (s *Service) ListBlocked(ctx context.Context, me string) ([]string, error) {
	if me == "" {
		return nil, svcErr.InvalidArgument("email is required")
	}
	out, err := s.blocks.ListBlocked(ctx, me)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// Status reports both block directions between me and other.
func (s *Service) Status(ctx context.Context, me, other string) (BlockStatus, error) {
	if me == "" || other == "" {
		return BlockStatus{}, svcErr.InvalidArgument("user1 and user2 are required")
	}
	st, err := s.blocks.Status(ctx, me, other)
	if err != nil {
		return BlockStatus{}, svcErr.Map(err)
	}
	return BlockStatus{Blocked: st.Blocked(), BlockedByMe: st.BlockedByMe, BlockedMe: st.BlockedMe}, nil
}

// Report records a report and applies its consequences immediately.
//
// Behavior:
//   - Reporter and reason are required; exactly one target must be set.
//   - User reports run in one transaction: store the report, delete both like
//     directions, delete the pair's messages with their reactions and the
//     similarity record. There is no review step.
//   - Confession reports require the confession to exist and are limited to one
//     per reporter. Reaching ConfessionReportThreshold deletes the confession.
func (s *Service) Report(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	if req.ReporterEmail == "" || req.Reason == "" {
		return nil, svcErr.InvalidArgument("reporterEmail and reason are required")
	}
	hasUser := req.ReportedUserEmail != nil && *req.ReportedUserEmail != ""
	hasConfession := req.ConfessionID != nil && *req.ConfessionID != ""
	if hasUser == hasConfession {
		return nil, svcErr.InvalidArgument("exactly one of reportedUserEmail or confessionId is required")
	}

	if hasUser {
		return s.reportUser(ctx, req)
	}
	return s.reportConfession(ctx, req)
}

func (s *Service) reportUser(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	reporter, reported := req.ReporterEmail, *req.ReportedUserEmail
	if reporter == reported {
		return nil, svcErr.InvalidArgument("cannot report yourself")
	}

	res := &ReportResult{ReportID: uuid.NewString()}
	roomID := room.ID(reporter, reported)

	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewReportRepository(tx).Create(ctx, &db.Report{
			ID:                res.ReportID,
			ReporterEmail:     reporter,
			ReportedUserEmail: &reported,
			Reason:            req.Reason,
			Details:           req.Details,
		}); err != nil {
			return err
		}
		if _, err := repository.NewLikeRepository(tx).RemovePair(ctx, reporter, reported); err != nil {
			return err
		}
		n, err := repository.NewMessageRepository(tx).DeleteRoom(ctx, roomID)
		if err != nil {
			return err
		}
		res.MessagesDeleted = n
		return repository.NewSimilarityRepository(tx).Delete(ctx, roomID)
	})
	if err != nil {
		s.log(ctx).Error("user report failed", "reporter", reporter, "reported", reported, "err", err)
		return nil, svcErr.Map(err)
	}

	s.invalidateCounts(ctx, reporter, reported)
	metrics.ReportsFiled.WithLabelValues("user").Inc()
	s.log(ctx).Info("user reported", "reporter", reporter, "reported", reported, "messages_deleted", res.MessagesDeleted)
	return res, nil
}

func (s *Service) reportConfession(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	confessionID := *req.ConfessionID

	exists, err := s.confessions.Exists(ctx, confessionID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("confession not found")
	}

	already, err := s.reports.HasReportedConfession(ctx, req.ReporterEmail, confessionID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if already {
		return nil, svcErr.AlreadyExists("you already reported this confession")
	}

	res := &ReportResult{ReportID: uuid.NewString()}
	err = s.reports.Create(ctx, &db.Report{
		ID:            res.ReportID,
		ReporterEmail: req.ReporterEmail,
		ConfessionID:  &confessionID,
		Reason:        req.Reason,
		Details:       req.Details,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, svcErr.AlreadyExists("you already reported this confession")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	metrics.ReportsFiled.WithLabelValues("confession").Inc()

	count, err := s.reports.CountForConfession(ctx, confessionID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if count >= ConfessionReportThreshold {
		if err := s.confessions.Delete(ctx, confessionID); err != nil {
			s.log(ctx).Error("confession auto-delete failed", "confession", confessionID, "err", err)
			return nil, svcErr.Map(err)
		}
		res.ConfessionDeleted = true
		metrics.ConfessionsAutoDeleted.Inc()
		s.log(ctx).Info("confession deleted by reports", "confession", confessionID, "reports", count)
	}
	return res, nil
}

// Panic records a panic event addressed to the user's trusted contact.
func (s *Service) Panic(ctx context.Context, email string, lat, lng *float64, note string) (*SafetyEvent, error) {
	return s.record(ctx, db.SafetyEventPanic, email, lat, lng, note)
}

// ShareLocation records the user's position for the trusted contact.
func (s *Service) ShareLocation(ctx context.Context, email string, lat, lng *float64) (*SafetyEvent, error) {
	if lat == nil || lng == nil {
		return nil, svcErr.InvalidArgument("latitude and longitude are required")
	}
	return s.record(ctx, db.SafetyEventLocation, email, lat, lng, "")
}

func (s *Service) record(ctx context.Context, kind, email string, lat, lng *float64, note string) (*SafetyEvent, error) {
	if email == "" {
		return nil, svcErr.InvalidArgument("email is required")
	}
	if lat != nil && (*lat < -90 || *lat > 90) || lng != nil && (*lng < -180 || *lng > 180) {
		return nil, svcErr.InvalidArgument("coordinates out of range")
	}

	// the contact is read at event time, never cached
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("user not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if u.TrustedContact == "" {
		return nil, svcErr.InvalidArgument("no trusted contact configured")
	}

	ev := &db.SafetyEvent{
		ID:             uuid.NewString(),
		Kind:           kind,
		UserEmail:      email,
		TrustedContact: u.TrustedContact,
		Latitude:       lat,
		Longitude:      lng,
		Note:           note,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.appCtx.SafetyEvents.RecordSafetyEvent(ctx, ev); err != nil {
		s.log(ctx).Error("safety event not recorded", "kind", kind, "email", email, "err", err)
		return nil, svcErr.Map(err)
	}
	s.log(ctx).Warn("safety event", "kind", kind, "email", email, "contact", u.TrustedContact)

	out := toSafetyView(ev)
	return &out, nil
}

// ListSafetyEvents returns the caller's own panic and location history, newest
// first. limit defaults to 20 and is capped at 100.
func (s *Service) ListSafetyEvents(ctx context.Context, email string, limit int) ([]SafetyEvent, error) {
	if email == "" {
		return nil, svcErr.InvalidArgument("email is required")
	}
	if limit <= 0 {
		limit = defaultSafetyEventLimit
	}
	if limit > maxSafetyEventLimit {
		limit = maxSafetyEventLimit
	}

	rows, err := s.appCtx.SafetyEvents.ListSafetyEvents(ctx, email, limit)
	if err != nil {
		s.log(ctx).Error("safety events not listed", "email", email, "err", err)
		return nil, svcErr.Map(err)
	}
	out := make([]SafetyEvent, 0, len(rows))
	for i := range rows {
		out = append(out, toSafetyView(&rows[i]))
	}
	return out, nil
}

func toSafetyView(ev *db.SafetyEvent) SafetyEvent {
	return SafetyEvent{
		ID:             ev.ID,
		Kind:           ev.Kind,
		TrustedContact: ev.TrustedContact,
		Latitude:       ev.Latitude,
		Longitude:      ev.Longitude,
		Note:           ev.Note,
		CreatedAt:      ev.CreatedAt.UnixMilli(),
	}
}

// invalidateCounts drops liked-you counters whose value a block or report changed.
func (s *Service) invalidateCounts(ctx context.Context, emails ...string) {
	if err := s.appCtx.RedisCache.InvalidateLikeCounts(ctx, emails...); err != nil {
		s.log(ctx).Warn("like counter invalidation failed", "err", err)
	}
}

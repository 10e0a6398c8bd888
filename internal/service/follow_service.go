package service

import (
	"context"
	"errors"
	"time"

	"github.com/publica-app/publica/internal/audit"
	"github.com/publica-app/publica/internal/cache"
	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/internal/repository"
	pkglog "github.com/publica-app/publica/pkg/log"
)

// followService implements FollowService.
type followService struct {
	follows  repository.FollowRepository
	authors  repository.AuthorRepository
	counters cache.CounterStore
	ttl      time.Duration
}

// NewFollowService creates a new FollowService instance. counters may be nil
// to always read follower counts from the store.
func NewFollowService(follows repository.FollowRepository, authors repository.AuthorRepository, counters cache.CounterStore, counterTTL time.Duration) FollowService {
	return &followService{
		follows:  follows,
		authors:  authors,
		counters: counters,
		ttl:      counterTTL,
	}
}

// Follow creates a follow edge from the follower to the target author.
// Following yourself fails with ErrSelfFollow; following someone you already
// follow is a no-op success. The edge state machine is two-state: the pair
// is either absent or present.
func (s *followService) Follow(ctx context.Context, follower domain.Author, targetUsername string) error {
	l := pkglog.Ctx(ctx)

	target, err := s.resolveTarget(ctx, follower, targetUsername)
	if err != nil {
		return err
	}

	if err := s.authors.EnsureExists(ctx, &follower); err != nil {
		return err
	}

	if err := s.follows.Follow(ctx, follower.ID, target.ID); err != nil {
		l.Error().Err(err).
			Str("follower_id", follower.ID).
			Str("following_id", target.ID).
			Msg("failed to follow author")
		return err
	}

	audit.LogWithDetail(ctx, audit.ActionFollow, follower.ID, target.ID, "author followed")
	return nil
}

// Unfollow removes the follow edge if present; an absent edge is a no-op.
func (s *followService) Unfollow(ctx context.Context, follower domain.Author, targetUsername string) error {
	l := pkglog.Ctx(ctx)

	target, err := s.resolveTarget(ctx, follower, targetUsername)
	if err != nil {
		return err
	}

	if err := s.follows.Unfollow(ctx, follower.ID, target.ID); err != nil {
		l.Error().Err(err).
			Str("follower_id", follower.ID).
			Str("following_id", target.ID).
			Msg("failed to unfollow author")
		return err
	}

	audit.LogWithDetail(ctx, audit.ActionUnfollow, follower.ID, target.ID, "author unfollowed")
	return nil
}

// Status reports whether the follower follows the target, plus the target's
// follower count. The count is served from the counter cache when warm.
func (s *followService) Status(ctx context.Context, follower domain.Author, targetUsername string) (*domain.FollowStatus, error) {
	l := pkglog.Ctx(ctx)

	target, err := s.authors.GetByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, repository.ErrAuthorNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}

	following, err := s.follows.IsFollowing(ctx, follower.ID, target.ID)
	if err != nil {
		return nil, err
	}

	count, err := s.followerCount(ctx, target.ID)
	if err != nil {
		l.Warn().Err(err).Str("user_id", target.ID).Msg("failed to get follower count")
		count = 0
	}

	return &domain.FollowStatus{
		Username:      target.Username,
		Following:     following,
		FollowerCount: count,
	}, nil
}

// resolveTarget looks up the target author and rejects self-follow.
// The self check happens before the existence check result is used so a
// user can never follow themselves even if their row is missing.
func (s *followService) resolveTarget(ctx context.Context, follower domain.Author, targetUsername string) (*domain.Author, error) {
	if follower.Username == targetUsername {
		return nil, ErrSelfFollow
	}

	target, err := s.authors.GetByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, repository.ErrAuthorNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}

	if target.ID == follower.ID {
		return nil, ErrSelfFollow
	}
	return target, nil
}

// followerCount reads the count through the cache, falling back to the db.
func (s *followService) followerCount(ctx context.Context, userID string) (int64, error) {
	l := pkglog.Ctx(ctx)

	if s.counters != nil {
		count, found, err := s.counters.GetFollowerCount(ctx, userID)
		if err != nil {
			l.Warn().Err(err).Str("user_id", userID).Msg("counter cache get failed, falling back to db")
		}
		if found {
			return count, nil
		}
	}

	count, err := s.follows.FollowerCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.counters != nil {
		if err := s.counters.SetFollowerCount(ctx, userID, count, s.ttl); err != nil {
			l.Warn().Err(err).Str("user_id", userID).Msg("counter cache set failed")
		}
	}

	return count, nil
}

// Ensure interface is satisfied at compile time.
var _ FollowService = (*followService)(nil)

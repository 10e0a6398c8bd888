package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/pkg/log"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Follow creates a follow edge. The insert ignores conflicts on the
// (follower_id, following_id) unique index, so a duplicate request —
// including a concurrent one — is a no-op success rather than an error.
func (r *GormFollowRepository) Follow(ctx context.Context, followerID, followingID string) error {
	l := log.Ctx(ctx)

	model := domain.FollowModel{
		FollowerID:  followerID,
		FollowingID: followingID,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		l.Error().Err(result.Error).
			Str("follower_id", followerID).
			Str("following_id", followingID).
			Msg("failed to create follow edge in db")
		return result.Error
	}
	return nil
}

// Unfollow removes a follow edge if present. A missing edge is a no-op.
func (r *GormFollowRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&domain.FollowModel{})
	if result.Error != nil {
		l.Error().Err(result.Error).
			Str("follower_id", followerID).
			Str("following_id", followingID).
			Msg("failed to delete follow edge from db")
		return result.Error
	}
	return nil
}

// IsFollowing checks if followerID follows followingID.
func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowerCount returns the total number of followers for a given user.
func (r *GormFollowRepository) FollowerCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("following_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure interface is satisfied at compile time.
var _ FollowRepository = (*GormFollowRepository)(nil)

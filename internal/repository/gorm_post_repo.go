package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/pkg/log"
)

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-based post repository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// Create persists a new post.
func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	l := log.Ctx(ctx)

	post.ID = uuid.New().String()

	model := domain.PostModel{
		ID:       post.ID,
		AuthorID: post.AuthorID,
		Text:     post.Text,
		ImageKey: post.ImageKey,
	}
	if post.GroupID != "" {
		groupID := post.GroupID
		model.GroupID = &groupID
	}

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create post in db")
		return result.Error
	}

	post.CreatedAt = model.CreatedAt
	post.UpdatedAt = model.UpdatedAt
	l.Debug().Str("post_id", post.ID).Msg("post created in db")
	return nil
}

// GetByID retrieves a post by ID with its author and group.
func (r *GormPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	l := log.Ctx(ctx)

	var model domain.PostModel
	result := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		l.Error().Err(result.Error).Str("post_id", id).Msg("failed to get post by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Update persists changes to text, group, and image of an existing post.
func (r *GormPostRepository) Update(ctx context.Context, post *domain.Post) error {
	l := log.Ctx(ctx)

	updates := map[string]interface{}{
		"text":      post.Text,
		"image_key": post.ImageKey,
	}
	if post.GroupID != "" {
		updates["group_id"] = post.GroupID
	} else {
		updates["group_id"] = nil
	}

	result := r.db.WithContext(ctx).Model(&domain.PostModel{}).
		Where("id = ?", post.ID).
		Updates(updates)
	if result.Error != nil {
		l.Error().Err(result.Error).Str("post_id", post.ID).Msg("failed to update post in db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ListByScope retrieves one window of posts for the scope, newest first.
func (r *GormPostRepository) ListByScope(ctx context.Context, scope domain.Scope, offset, limit int) ([]domain.Post, error) {
	l := log.Ctx(ctx)

	var models []domain.PostModel
	err := r.scoped(ctx, scope).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC, posts.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Int("scope_kind", int(scope.Kind)).Msg("failed to list posts from db")
		return nil, err
	}

	posts := make([]domain.Post, len(models))
	for i, model := range models {
		posts[i] = *model.ToDomain()
	}
	return posts, nil
}

// CountByScope counts posts matching the scope.
func (r *GormPostRepository) CountByScope(ctx context.Context, scope domain.Scope) (int, error) {
	l := log.Ctx(ctx)

	var total int64
	if err := r.scoped(ctx, scope).Count(&total).Error; err != nil {
		l.Error().Err(err).Int("scope_kind", int(scope.Kind)).Msg("failed to count posts")
		return 0, err
	}
	return int(total), nil
}

// scoped builds the filtered query for a scope selector. Group and author
// existence is the service's concern; an unknown slug or username simply
// matches nothing here.
func (r *GormPostRepository) scoped(ctx context.Context, scope domain.Scope) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&domain.PostModel{})

	switch scope.Kind {
	case domain.ScopeGroup:
		query = query.
			Joins("JOIN groups ON groups.id = posts.group_id").
			Where("groups.slug = ?", scope.GroupSlug)
	case domain.ScopeAuthor:
		query = query.
			Joins("JOIN authors ON authors.id = posts.author_id").
			Where("authors.username = ?", scope.AuthorUsername)
	case domain.ScopeFollowed:
		followed := r.db.Model(&domain.FollowModel{}).
			Select("following_id").
			Where("follower_id = ?", scope.ViewerID)
		query = query.Where("posts.author_id IN (?)", followed)
	}

	return query
}

// Ensure interface is satisfied at compile time.
var _ PostRepository = (*GormPostRepository)(nil)

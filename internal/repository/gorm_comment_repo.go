package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/pkg/log"
)

// GormCommentRepository implements CommentRepository using GORM.
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GORM-based comment repository.
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Create persists a new comment.
func (r *GormCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	l := log.Ctx(ctx)

	comment.ID = uuid.New().String()

	model := domain.CommentModel{
		ID:       comment.ID,
		PostID:   comment.PostID,
		AuthorID: comment.AuthorID,
		Text:     comment.Text,
	}

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str("post_id", comment.PostID).Msg("failed to create comment in db")
		return result.Error
	}

	comment.CreatedAt = model.CreatedAt
	return nil
}

// ListByPost retrieves all comments on a post, oldest first.
func (r *GormCommentRepository) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	l := log.Ctx(ctx)

	var models []domain.CommentModel
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str("post_id", postID).Msg("failed to list comments from db")
		return nil, err
	}

	comments := make([]domain.Comment, len(models))
	for i, model := range models {
		comments[i] = *model.ToDomain()
	}
	return comments, nil
}

// Ensure interface is satisfied at compile time.
var _ CommentRepository = (*GormCommentRepository)(nil)

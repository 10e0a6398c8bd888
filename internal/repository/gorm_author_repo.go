package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/pkg/log"
)

// GormAuthorRepository implements AuthorRepository using GORM.
type GormAuthorRepository struct {
	db *gorm.DB
}

// NewGormAuthorRepository creates a new GORM-based author repository.
func NewGormAuthorRepository(db *gorm.DB) *GormAuthorRepository {
	return &GormAuthorRepository{db: db}
}

// GetByUsername retrieves an author by username.
func (r *GormAuthorRepository) GetByUsername(ctx context.Context, username string) (*domain.Author, error) {
	l := log.Ctx(ctx)

	var model domain.AuthorModel
	result := r.db.WithContext(ctx).First(&model, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		l.Error().Err(result.Error).Str("username", username).Msg("failed to get author by username")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// EnsureExists upserts the author row mirrored from auth claims. The
// conflict-ignore insert keeps concurrent first writes idempotent.
func (r *GormAuthorRepository) EnsureExists(ctx context.Context, author *domain.Author) error {
	l := log.Ctx(ctx)

	model := domain.AuthorModel{
		ID:       author.ID,
		Username: author.Username,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str("username", author.Username).Msg("failed to ensure author in db")
		return result.Error
	}
	return nil
}

// Ensure interface is satisfied at compile time.
var _ AuthorRepository = (*GormAuthorRepository)(nil)

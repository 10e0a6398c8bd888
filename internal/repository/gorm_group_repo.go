package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/pkg/log"
)

// GormGroupRepository implements GroupRepository using GORM.
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GORM-based group repository.
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// GetBySlug retrieves a group by its unique slug.
func (r *GormGroupRepository) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	l := log.Ctx(ctx)

	var model domain.GroupModel
	result := r.db.WithContext(ctx).First(&model, "slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		l.Error().Err(result.Error).Str("slug", slug).Msg("failed to get group by slug")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List retrieves all groups ordered by title.
func (r *GormGroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	l := log.Ctx(ctx)

	var models []domain.GroupModel
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list groups from db")
		return nil, err
	}

	groups := make([]domain.Group, len(models))
	for i, model := range models {
		groups[i] = *model.ToDomain()
	}
	return groups, nil
}

// Ensure interface is satisfied at compile time.
var _ GroupRepository = (*GormGroupRepository)(nil)

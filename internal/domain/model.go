package domain

import (
	"time"
)

// AuthorModel is the GORM model for the authors table.
type AuthorModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuthorModel) TableName() string { return "authors" }

// ToDomain converts AuthorModel to domain Author.
func (m *AuthorModel) ToDomain() *Author {
	return &Author{
		ID:        m.ID,
		Username:  m.Username,
		CreatedAt: m.CreatedAt,
	}
}

// GroupModel is the GORM model for the groups table.
type GroupModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (GroupModel) TableName() string { return "groups" }

// ToDomain converts GroupModel to domain Group.
func (m *GroupModel) ToDomain() *Group {
	return &Group{
		ID:          m.ID,
		Slug:        m.Slug,
		Title:       m.Title,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

// PostModel is the GORM model for the posts table. Author and Group are
// preloaded for listing so a page renders without extra round trips.
type PostModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	AuthorID  string    `gorm:"type:varchar(36);index;not null"`
	GroupID   *string   `gorm:"type:varchar(36);index"`
	Text      string    `gorm:"type:text;not null"`
	ImageKey  string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_posts_created_at,sort:desc"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Author AuthorModel `gorm:"foreignKey:AuthorID"`
	Group  *GroupModel `gorm:"foreignKey:GroupID"`
}

func (PostModel) TableName() string { return "posts" }

// ToDomain converts PostModel to domain Post.
func (m *PostModel) ToDomain() *Post {
	p := &Post{
		ID:             m.ID,
		AuthorID:       m.AuthorID,
		AuthorUsername: m.Author.Username,
		Text:           m.Text,
		ImageKey:       m.ImageKey,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.GroupID != nil {
		p.GroupID = *m.GroupID
	}
	if m.Group != nil {
		p.GroupSlug = m.Group.Slug
	}
	return p
}

// CommentModel is the GORM model for the comments table.
type CommentModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	PostID    string    `gorm:"type:varchar(36);index;not null"`
	AuthorID  string    `gorm:"type:varchar(36);not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Author AuthorModel `gorm:"foreignKey:AuthorID"`
}

func (CommentModel) TableName() string { return "comments" }

// ToDomain converts CommentModel to domain Comment.
func (m *CommentModel) ToDomain() *Comment {
	return &Comment{
		ID:             m.ID,
		PostID:         m.PostID,
		AuthorID:       m.AuthorID,
		AuthorUsername: m.Author.Username,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}
}

// FollowModel is the GORM model for the follows table. The composite unique
// index is what makes Follow idempotent under concurrent duplicates.
type FollowModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	FollowerID  string    `gorm:"column:follower_id;type:varchar(36);not null;uniqueIndex:idx_follows_edge"`
	FollowingID string    `gorm:"column:following_id;type:varchar(36);not null;uniqueIndex:idx_follows_edge;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (FollowModel) TableName() string { return "follows" }

// ToDomain converts FollowModel to domain Follow.
func (m *FollowModel) ToDomain() *Follow {
	return &Follow{
		FollowerID:  m.FollowerID,
		FollowingID: m.FollowingID,
		CreatedAt:   m.CreatedAt,
	}
}

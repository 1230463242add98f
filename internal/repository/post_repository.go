package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bloggiz/internal/model"
)

// PostRepository defines post persistence operations. Listing is always
// newest-first; the dataset is small enough that pagination is not needed.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Post, error)
	List(ctx context.Context, publishedOnly bool) ([]model.Post, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository builds a GORM-backed repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return err
	}
	// Reload with the author populated so callers get the full record back.
	return r.db.WithContext(ctx).Preload("Author").First(post, "id = ?", post.ID).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Post, error) {
	var post model.Post
	q := r.db.WithContext(ctx).Preload("Author").Where("slug = ?", slug)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, publishedOnly bool) ([]model.Post, error) {
	// Non-nil so an empty listing serializes as [] rather than null.
	posts := make([]model.Post, 0)
	q := r.db.WithContext(ctx).Preload("Author").Order("created_at DESC")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateFields overwrites only the supplied columns. Existence of the row is
// the caller's concern; a zero-row update here is not an error because MySQL
// reports no affected rows for value-preserving updates.
func (r *postRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).Updates(fields).Error
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	return tx.RowsAffected, tx.Error
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "bloggiz/internal/errors"
	"bloggiz/internal/model"
	"bloggiz/internal/repository"
)

// CreatePostInput carries the user-supplied fields of a new post.
type CreatePostInput struct {
	Title     string
	Slug      string
	Content   string
	Excerpt   string
	Published bool
	AuthorID  uuid.UUID
}

// UpdatePostInput carries a partial update; nil fields are left untouched.
type UpdatePostInput struct {
	Title     *string
	Slug      *string
	Content   *string
	Excerpt   *string
	Published *bool
}

// PostService exposes post lifecycle operations and enforces the
// draft-visibility rule.
type PostService interface {
	List(ctx context.Context, publishedOnly bool) ([]model.Post, error)
	GetByID(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*model.Post, error)
	Create(ctx context.Context, input CreatePostInput) (*model.Post, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

// NewPostService builds a PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) PostService {
	return &postService{postRepo: postRepo, userRepo: userRepo}
}

func (s *postService) List(ctx context.Context, publishedOnly bool) ([]model.Post, error) {
	return s.postRepo.List(ctx, publishedOnly)
}

func (s *postService) GetByID(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	// Drafts look like missing posts to anyone without an admin session.
	if !post.Published && !includeUnpublished {
		return nil, apperrors.ErrPostNotFound
	}
	return post, nil
}

func (s *postService) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*model.Post, error) {
	post, err := s.postRepo.FindBySlug(ctx, slug, !includeUnpublished)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return post, nil
}

// Create validates required fields then persists. The slug pre-check gives a
// clean error in the common case; the unique index decides races, so a
// duplicate-key failure from Create is reported the same way.
func (s *postService) Create(ctx context.Context, input CreatePostInput) (*model.Post, error) {
	if input.Title == "" || input.Content == "" || input.Slug == "" {
		return nil, apperrors.ErrMissingFields
	}

	if _, err := s.userRepo.FindByID(ctx, input.AuthorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("find author: %w", err)
	}

	taken, err := s.postRepo.ExistsBySlug(ctx, input.Slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return nil, apperrors.ErrSlugTaken
	}

	post := &model.Post{
		Title:     input.Title,
		Slug:      input.Slug,
		Content:   input.Content,
		Excerpt:   input.Excerpt,
		Published: input.Published,
		AuthorID:  input.AuthorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrSlugTaken
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Update overwrites only the supplied fields. A slug change is checked for
// uniqueness against every other post.
func (s *postService) Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*model.Post, error) {
	existing, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Content != nil {
		fields["content"] = *input.Content
	}
	if input.Excerpt != nil {
		fields["excerpt"] = *input.Excerpt
	}
	if input.Published != nil {
		fields["published"] = *input.Published
	}
	if input.Slug != nil && *input.Slug != existing.Slug {
		taken, err := s.postRepo.ExistsBySlug(ctx, *input.Slug)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return nil, apperrors.ErrSlugTaken
		}
		fields["slug"] = *input.Slug
	}

	if err := s.postRepo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrSlugTaken
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	updated, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("reload post: %w", err)
	}
	return updated, nil
}

func (s *postService) Delete(ctx context.Context, id uuid.UUID) error {
	rows, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

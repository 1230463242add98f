package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"bloggiz/internal/auth"
	"bloggiz/internal/errors"
	"bloggiz/internal/model"
	"bloggiz/internal/service"
)

// PostHandler handles post endpoints.
type PostHandler struct {
	postService service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// CreatePostRequest represents a post creation request.
type CreatePostRequest struct {
	Title     string `json:"title" validate:"required"`
	Slug      string `json:"slug" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Excerpt   string `json:"excerpt"`
	Published bool   `json:"published"`
}

// UpdatePostRequest represents a partial post update. Absent fields are left
// unchanged.
type UpdatePostRequest struct {
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
	Content   *string `json:"content"`
	Excerpt   *string `json:"excerpt"`
	Published *bool   `json:"published"`
}

// isAdmin reports whether the current request carries an ADMIN session.
func isAdmin(c echo.Context) bool {
	claims := auth.CurrentSession(c)
	return claims != nil && claims.Role == model.RoleAdmin
}

// domainError converts a service failure into the taxonomy's HTTP shape,
// logging the detail server-side when it maps to a 500.
func domainError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// ListPosts godoc
// @Summary List published posts
// @Tags posts
// @Produce json
// @Success 200 {array} model.Post
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [get]
func (h *PostHandler) ListPosts(c echo.Context) error {
	posts, err := h.postService.List(c.Request().Context(), true)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, posts)
}

// ListAllPosts godoc
// @Summary List all posts including drafts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Post
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/admin [get]
func (h *PostHandler) ListAllPosts(c echo.Context) error {
	posts, err := h.postService.List(c.Request().Context(), false)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, posts)
}

// GetPost godoc
// @Summary Get a post by id
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} model.Post
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainError(c, errors.ErrPostNotFound)
	}
	post, err := h.postService.GetByID(c.Request().Context(), id, isAdmin(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// GetPostBySlug godoc
// @Summary Get a post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} model.Post
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/slug/{slug} [get]
func (h *PostHandler) GetPostBySlug(c echo.Context) error {
	post, err := h.postService.GetBySlug(c.Request().Context(), c.Param("slug"), isAdmin(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePostRequest true "Post data"
// @Success 201 {object} model.Post
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [post]
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return domainError(c, errors.ErrMissingFields)
	}

	claims := auth.CurrentSession(c)
	if claims == nil {
		return domainError(c, errors.ErrUnauthorized)
	}
	authorID, err := claims.SubjectID()
	if err != nil {
		return domainError(c, errors.ErrUnauthorized)
	}

	post, err := h.postService.Create(c.Request().Context(), service.CreatePostInput{
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Published: req.Published,
		AuthorID:  authorID,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body UpdatePostRequest true "Fields to update"
// @Success 200 {object} model.Post
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainError(c, errors.ErrPostNotFound)
	}

	var req UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	post, err := h.postService.Update(c.Request().Context(), id, service.UpdatePostInput{
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Published: req.Published,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainError(c, errors.ErrPostNotFound)
	}
	if err := h.postService.Delete(c.Request().Context(), id); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "post deleted successfully",
	})
}

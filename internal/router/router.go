package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bloggiz/docs"
	"bloggiz/internal/auth"
	"bloggiz/internal/config"
	"bloggiz/internal/handler"
	"bloggiz/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	resolver *auth.Resolver,
	authHandler *handler.AuthHandler,
	postHandler *handler.PostHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Public reads. OptionalSession lets an admin see drafts through the same
	// endpoints without making a session mandatory.
	api.GET("/posts", postHandler.ListPosts, resolver.OptionalSession())
	api.GET("/posts/slug/:slug", postHandler.GetPostBySlug, resolver.OptionalSession())
	api.GET("/posts/:id", postHandler.GetPost, resolver.OptionalSession())

	// Secured routes (require a valid, unrevoked session)
	secured := api.Group("", echojwt.WithConfig(resolver.JWTConfig()))
	secured.GET("/me", userHandler.Me)

	// Administrator routes: the guard runs after session resolution, before
	// any handler body, so a denied request never reaches the repository.
	admin := secured.Group("", auth.RequireRole(model.RoleAdmin))
	admin.GET("/users", userHandler.ListUsers)
	admin.GET("/posts/admin", postHandler.ListAllPosts)
	admin.POST("/posts", postHandler.CreatePost)
	admin.PUT("/posts/:id", postHandler.UpdatePost)
	admin.DELETE("/posts/:id", postHandler.DeletePost)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"forumhub/internal/auth"
	"forumhub/internal/handler"
	"forumhub/internal/middleware"
	"forumhub/internal/validation"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Courses  *handler.CourseHandler
	Posts    *handler.PostHandler
	Comments *handler.CommentHandler
	Likes    *handler.LikeHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	logger *zap.Logger,
	tokens *auth.TokenService,
	resolver *auth.PrincipalResolver,
	h Handlers,
) {
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.ZapLogger(logger))

	e.Validator = validation.New()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	api.GET("/courses", h.Courses.ListCourses)
	api.GET("/courses/:id", h.Courses.GetCourse)

	api.GET("/posts", h.Posts.ListPosts)
	api.GET("/posts/search", h.Posts.SearchPosts)
	api.GET("/posts/:id", h.Posts.GetPost)
	api.GET("/posts/user/:userId", h.Posts.ListByUser)
	api.GET("/posts/course/:courseId", h.Posts.ListByCourse)
	api.GET("/posts/:id/comments", h.Comments.ListComments)

	// Secured routes (bearer token resolved to a stored user)
	secured := api.Group("", middleware.Authenticate(tokens, resolver)...)

	secured.GET("/me", h.Auth.Me)

	secured.PUT("/users/:id", h.Users.UpdateUser)

	secured.POST("/courses", h.Courses.CreateCourse)
	secured.PUT("/courses/:id", h.Courses.UpdateCourse)

	secured.POST("/posts", h.Posts.CreatePost)
	secured.PUT("/posts/:id", h.Posts.UpdatePost)
	secured.DELETE("/posts/:id", h.Posts.DeletePost)

	secured.POST("/posts/:id/comments", h.Comments.AddComment)
	secured.PUT("/posts/:id/comments/:commentId", h.Comments.UpdateComment)
	secured.DELETE("/posts/:id/comments/:commentId", h.Comments.DeleteComment)

	secured.POST("/posts/:id/like", h.Likes.Like)
	secured.DELETE("/posts/:id/like", h.Likes.Unlike)
}

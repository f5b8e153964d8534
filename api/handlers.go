package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	defaultJoinLimit  = 10
	defaultJoinWindow = time.Minute
	healthTimeout     = 2 * time.Second
)

// Deps carries everything Register needs to serve the API.
type Deps struct {
	Boards Boards
	Tasks  Tasks
	Users  Users
	Auth   interface {
		Authenticator
		TokenIssuer
	}
	JoinLimiter RateLimiter
	JoinLimit   int
	JoinWindow  time.Duration
	Health      []Pinger
	Logger      *log.Logger
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	if d.Logger == nil {
		panic("api.Register: nil logger")
	}
	if d.JoinLimit == 0 {
		d.JoinLimit = defaultJoinLimit
	}
	if d.JoinWindow <= 0 {
		d.JoinWindow = defaultJoinWindow
	}
	e.JSONSerializer = SonicSerializer{}

	e.POST("/auth/signup", signup(d.Users, d.Logger))
	e.POST("/auth/login", login(d.Users, d.Auth, d.Logger))
	e.GET("/healthz", healthz(d.Health, d.Logger))

	auth := requireAuth(d.Auth)
	e.GET("/user", getProfile(d.Users, d.Logger), auth)

	e.GET("/boards", listBoards(d.Boards, d.Logger), auth)
	e.POST("/boards", createBoard(d.Boards, d.Logger), auth)
	e.POST("/boards/join", joinBoard(d.Boards, d.Logger),
		auth, rateLimitByUser(d.JoinLimiter, "join", d.JoinLimit, d.JoinWindow))
	e.GET("/boards/:boardId", getBoard(d.Boards, d.Logger), auth)
	e.PUT("/boards/:boardId", updateBoard(d.Boards, d.Logger), auth)
	e.DELETE("/boards/:boardId", deleteBoard(d.Boards, d.Logger), auth)
	e.POST("/boards/:boardId/password", rotatePassword(d.Boards, d.Logger), auth)

	e.POST("/tasks", createTask(d.Tasks, d.Logger), auth)
	e.PUT("/tasks/:taskId", updateTask(d.Tasks, d.Logger), auth)
	e.POST("/comments", createComment(d.Tasks, d.Logger), auth)
}

func healthz(deps []Pinger, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		for _, p := range deps {
			if err := p.Ping(ctx); err != nil {
				logger.WithFields(log.Fields{"error": err.Error()}).Warn("health check failed")
				return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	}
}

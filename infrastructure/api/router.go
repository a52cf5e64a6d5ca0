// Package api exposes the REST surface of the chat: accounts, history, presence,
// and the websocket entry point.
package api

import (
	"log/slog"
	"net/http"
	"nextext/auth"
	"nextext/contract"
	"nextext/services"

	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Auth      services.IAuthService
	Users     services.IUserService
	Chat      services.IChatService
	Validator contract.IAuthValidator
	WebSocket http.Handler

	AllowedOrigins []string
	// Stats backs GET /debug/stats. The route is not mounted when nil.
	Stats func() any
}

type Server struct {
	log  *slog.Logger
	deps Dependencies
}

func NewRouter(log *slog.Logger, deps Dependencies) *gin.Engine {
	s := &Server{log: log, deps: deps}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), CORS(deps.AllowedOrigins))

	router.GET("/health", s.health)
	if deps.Stats != nil {
		router.GET("/debug/stats", s.stats)
	}

	guard := auth.Interceptor(deps.Validator)
	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", s.register)
	users.POST("/login", s.login)
	users.GET("/me", guard, s.me)
	users.GET("/", guard, s.searchUsers)

	chat := v1.Group("/chat")
	chat.GET("/history/:other_user_id", guard, s.history)
	chat.GET("/online", s.online)
	if deps.WebSocket != nil {
		chat.GET("/ws", gin.WrapH(deps.WebSocket))
	}
	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Stats())
}

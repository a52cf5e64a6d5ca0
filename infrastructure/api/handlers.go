package api

import (
	"net/http"
	"nextext/auth"
	"nextext/domain"
	"nextext/errors"
	"nextext/services"
	"strconv"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	user, err := s.deps.Auth.Register(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// login accepts an OAuth2 password form or the same fields as JSON.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.badRequest(c, "username and password are required")
		return
	}
	token, err := s.deps.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token.String(), TokenType: "bearer"})
}

func (s *Server) me(c *gin.Context) {
	id, _ := auth.UserIDFrom(c)
	user, err := s.deps.Auth.Me(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) searchUsers(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil {
		s.badRequest(c, "skip must be an integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultSearchLimit)))
	if err != nil {
		s.badRequest(c, "limit must be an integer")
		return
	}
	found, err := s.deps.Users.Search(c.Request.Context(), domain.UserQuery{Q: c.Query("q"), Skip: skip, Limit: limit})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Server) history(c *gin.Context) {
	other, err := strconv.ParseInt(c.Param("other_user_id"), 10, 64)
	if err != nil || other <= 0 {
		s.badRequest(c, "other_user_id must be a positive integer")
		return
	}
	me, _ := auth.UserIDFrom(c)
	messages, err := s.deps.Chat.History(c.Request.Context(), me, domain.UserID(other))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) online(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Chat.Online())
}

// fail answers with the status mapped from err. Internal failures never leak their cause.
func (s *Server) fail(c *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	detail := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.log.Error("Request failed", "path", c.FullPath(), "error", err)
		detail = "internal server error"
	case http.StatusUnauthorized:
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func (s *Server) badRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": detail})
}

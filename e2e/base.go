package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"nextext/domain"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseChatSuite drives a running chat server over REST and websocket.
type BaseChatSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("CHAT_ADDR is not set, skipping end-to-end suite")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header then runs fn as a named subtest.
func (s *BaseChatSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// Do sends a request and decodes a JSON answer into out when it is not nil.
func (s *BaseChatSuite) Do(method, path, token string, body io.Reader, contentType string, out any) int {
	r, err := http.NewRequest(method, "http://"+s.Config.ChatAddr+path, body)
	s.Require().NoError(err)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(r)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.T().Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		s.T().Logf("RESPONSE:\n%s", raw)
	}
	if out != nil && len(raw) > 0 && resp.StatusCode < http.StatusBadRequest {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

// Account registers username (tolerating a previous run) and returns its id and a fresh token.
func (s *BaseChatSuite) Account(username string) (domain.UserID, string) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"email":    username + "@e2e.example",
		"password": s.Config.Password,
	})
	s.Require().NoError(err)
	code := s.Do(http.MethodPost, "/api/v1/users/register", "", bytes.NewReader(payload), "application/json", nil)
	s.Require().Contains([]int{http.StatusCreated, http.StatusBadRequest}, code)

	var token struct {
		AccessToken string `json:"access_token"`
	}
	form := url.Values{"username": {username}, "password": {s.Config.Password}}
	code = s.Do(http.MethodPost, "/api/v1/users/login", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &token)
	s.Require().Equal(http.StatusOK, code)

	var me domain.User
	s.Require().Equal(http.StatusOK, s.Do(http.MethodGet, "/api/v1/users/me", token.AccessToken, nil, "", &me))
	return me.ID, token.AccessToken
}

// Dial opens a chat session, closed automatically at the end of the test.
func (s *BaseChatSuite) Dial(token string) *websocket.Conn {
	target := url.URL{
		Scheme:   "ws",
		Host:     s.Config.ChatAddr,
		Path:     "/api/v1/chat/ws",
		RawQuery: url.Values{"token": {token}}.Encode(),
	}
	conn, _, err := websocket.DefaultDialer.Dial(target.String(), nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *BaseChatSuite) Read(conn *websocket.Conn) domain.Message {
	var msg domain.Message
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&msg))
	return msg
}

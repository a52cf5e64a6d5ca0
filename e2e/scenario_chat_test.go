package e2e

import (
	"fmt"
	"net/http"
	"nextext/domain"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseChatSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func (s *testChatSuite) TestFullConversationFlow() {
	// Unique names keep runs independent on a persistent server
	run := uuid.NewString()[:8]
	var (
		aliceID, bobID       domain.UserID
		aliceToken, bobToken string
	)

	// --- STEP 1: ACCOUNTS ---
	s.Step("Step 1: Register and login two accounts", func() {
		aliceID, aliceToken = s.Account("alice_" + run)
		bobID, bobToken = s.Account("bob_" + run)
		s.Require().NotEqual(aliceID, bobID)
	})

	// --- STEP 2: LIVE DELIVERY ---
	content := fmt.Sprintf("hello from e2e at %s", time.Now().Format(time.RFC3339))
	s.Step("Step 2: Deliver a message to both parties", func() {
		aliceConn := s.Dial(aliceToken)
		bobConn := s.Dial(bobToken)

		s.Require().Eventually(func() bool {
			var online []domain.UserID
			s.Do(http.MethodGet, "/api/v1/chat/online", "", nil, "", &online)
			return slices.Contains(online, aliceID) && slices.Contains(online, bobID)
		}, 5*time.Second, 100*time.Millisecond)

		s.Require().NoError(aliceConn.WriteJSON(map[string]any{"to": bobID, "content": content}))

		atBob := s.Read(bobConn)
		atAlice := s.Read(aliceConn)
		s.Require().Equal(content, atBob.Content)
		s.Require().Equal(atBob.ID, atAlice.ID)
		s.Require().Equal(aliceID, atBob.SenderID)
	})

	// --- STEP 3: HISTORY ---
	s.Step("Step 3: History holds the message on both sides", func() {
		var fromAlice, fromBob []domain.Message
		s.Require().Equal(http.StatusOK, s.Do(http.MethodGet, fmt.Sprintf("/api/v1/chat/history/%d", bobID), aliceToken, nil, "", &fromAlice))
		s.Require().Equal(http.StatusOK, s.Do(http.MethodGet, fmt.Sprintf("/api/v1/chat/history/%d", aliceID), bobToken, nil, "", &fromBob))
		s.Require().Equal(fromAlice, fromBob)
		s.Require().NotEmpty(fromAlice)
		s.Require().Equal(content, fromAlice[len(fromAlice)-1].Content)
	})

	// --- STEP 4: SEARCH ---
	s.Step("Step 4: Find bob through user search", func() {
		var found []domain.User
		s.Require().Equal(http.StatusOK, s.Do(http.MethodGet, "/api/v1/users/?q=bob_"+run, aliceToken, nil, "", &found))
		s.Require().Len(found, 1)
		s.Require().Equal(bobID, found[0].ID)
	})
}

package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/signedchess/internal/api"
	"github.com/mcoot/signedchess/internal/factory"
	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	server *httptest.Server
	app    *factory.App
	keyDir string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	app, err := factory.New(factory.Config{Logger: testutil.NopLogger()})
	s.Require().NoError(err)
	s.app = app
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		Engine:      app.Engine,
		Broadcaster: app.Broadcaster,
	}))
	s.keyDir = s.T().TempDir()
}

func (s *CLISuite) TearDownTest() {
	_ = s.app.Close()
	s.server.Close()
}

// run executes chessctl with the test server and key directory
func (s *CLISuite) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", s.server.URL, "--key-dir", s.keyDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) runJSON(v any, args ...string) {
	out, err := s.run(append([]string{"-o", "json"}, args...)...)
	s.Require().NoError(err, out)
	s.Require().NoError(json.Unmarshal([]byte(out), v), out)
}

// startGame creates a session between the "white" and "black" keys
func (s *CLISuite) startGame() string {
	var white, black KeyInfo
	s.runJSON(&white, "keygen", "--key", "white")
	s.runJSON(&black, "keygen", "--key", "black")

	var created CreateResult
	s.runJSON(&created, "create", "--key", "white")
	s.Require().True(created.OK)
	s.Equal(white.PublicKey, created.Session.Players.White)

	var joined model.Session
	s.runJSON(&joined, "join", created.SessionID, "--key", "black")
	s.Equal(model.StatusActive, joined.Status)
	s.Equal(black.PublicKey, joined.Players.Black)

	return created.SessionID
}

func (s *CLISuite) TestHealth() {
	out, err := s.run("health")
	s.Require().NoError(err)
	s.Equal("Status: ok\n", out)
}

func (s *CLISuite) TestKeygenStoresKey() {
	var info KeyInfo
	s.runJSON(&info, "keygen")
	s.Equal("default", info.Name)
	s.Len(info.PublicKey, 130)

	path := filepath.Join(s.keyDir, "default.json")
	stat, err := os.Stat(path)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0600), stat.Mode().Perm())

	// Refuses to overwrite without --force
	_, err = s.run("keygen")
	s.ErrorIs(err, ErrKeyExists)

	var replaced KeyInfo
	s.runJSON(&replaced, "keygen", "--force")
	s.NotEqual(info.PublicKey, replaced.PublicKey)
}

func (s *CLISuite) TestCreateWithoutKey() {
	_, err := s.run("create", "--key", "missing")
	s.Require().Error(err)
	s.Contains(err.Error(), "chessctl keygen")
}

func (s *CLISuite) TestPlayToCheckmateAndReview() {
	id := s.startGame()

	moves := []struct{ key, move string }{
		{"white", "f3"}, {"black", "e5"}, {"white", "g4"}, {"black", "Qh4#"},
	}
	var session model.Session
	for _, m := range moves {
		s.runJSON(&session, "move", id, m.move, "--key", m.key)
	}
	s.Equal(model.StatusReview, session.Status)

	out, err := s.run("get", id)
	s.Require().NoError(err)
	s.Contains(out, "Status: review")
	s.Contains(out, "Moves: 1. f3 e5 2. g4 Qh4#")
	s.Contains(out, "Result: Checkmate")

	s.runJSON(&session, "undo", id)
	s.Equal([]string{"f3", "e5", "g4"}, session.MoveLog)
	s.Equal([]string{"Qh4#"}, session.RedoLog)

	s.runJSON(&session, "redo", id)
	s.Len(session.MoveLog, 4)

	s.runJSON(&session, "reset", id)
	s.Empty(session.MoveLog)
}

func (s *CLISuite) TestMoveOutOfTurnReportsAPIError() {
	id := s.startGame()

	_, err := s.run("move", id, "e5", "--key", "black")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("UNAUTHORIZED", apiErr.Code)
	s.Equal(403, apiErr.Status)
}

func (s *CLISuite) TestMoveRejectsBadNotationLocally() {
	id := s.startGame()

	_, err := s.run("move", id, "e4|e5", "--key", "white")
	s.ErrorIs(err, model.ErrInvalidRequest)
}

func (s *CLISuite) TestWatchPrintsSnapshot() {
	id := s.startGame()

	out, err := s.run("watch", id, "--json", "--count", "1")
	s.Require().NoError(err)

	var evt WatchEvent
	s.Require().NoError(json.Unmarshal([]byte(strings.TrimSpace(out)), &evt))
	s.Equal(string(model.EventUpdate), evt.Event)
	s.Contains(string(evt.Data), `"status":"active"`)
}

func (s *CLISuite) TestWatchUnknownSession() {
	_, err := s.run("watch", "chess-000000000000", "--count", "1")
	s.Require().Error(err)
	s.Contains(err.Error(), "Session not found")
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:3001", "ws://localhost:3001/ws", false},
		{"https://chess.example.com/", "wss://chess.example.com/ws", false},
		{"http://host/prefix", "ws://host/prefix/ws", false},
		{"ws://host:1", "ws://host:1/ws", false},
		{"ftp://host", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := websocketURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("websocketURL(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestNumberMoves(t *testing.T) {
	got := numberMoves([]string{"e4", "e5", "Nf3"})
	if got != "1. e4 e5 2. Nf3" {
		t.Fatalf("numberMoves = %q", got)
	}
}

package factory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/realtime"
	"github.com/mcoot/signedchess/internal/signature"
	redisstorage "github.com/mcoot/signedchess/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app   *TestApp
	ctx   context.Context
	white signature.KeyPair
	black signature.KeyPair
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()

	var err error
	s.white, err = signature.GenerateKeyPair()
	s.Require().NoError(err)
	s.black, err = signature.GenerateKeyPair()
	s.Require().NoError(err)
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) move(id model.SessionID, player signature.KeyPair, notation string) (*model.Session, error) {
	sig, err := signature.Sign(player.PrivateKey, signature.MoveMessage(id, notation))
	s.Require().NoError(err)
	return s.app.Engine.SubmitMove(s.ctx, id, notation, player.PublicKey, sig)
}

func (s *IntegrationSuite) subscribe(id model.SessionID) *realtime.Client {
	client := realtime.NewClient()
	s.Require().NoError(s.app.Broadcaster.Subscribe(s.ctx, client, id))
	return client
}

func (s *IntegrationSuite) next(client *realtime.Client) realtime.Message {
	select {
	case msg := <-client.Messages():
		return msg
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for realtime message")
		return realtime.Message{}
	}
}

func (s *IntegrationSuite) nextSession(client *realtime.Client, kind model.EventKind) *model.Session {
	msg := s.next(client)
	s.Require().Equal(string(kind), msg.Event)
	var session model.Session
	s.Require().NoError(json.Unmarshal(msg.Data, &session))
	return &session
}

// Test: Complete game flow from creation to review, observed in realtime
func (s *IntegrationSuite) TestCompleteGameFlow() {
	// Setup: Queue random values
	s.app.MockRandom.QueueString("00000000abcd")

	// Step 1: White creates a session
	session, err := s.app.Engine.Create(s.ctx, s.white.PublicKey)
	s.Require().NoError(err)
	s.Equal(model.SessionID("chess-00000000abcd"), session.ID)
	s.Equal(model.StatusWaiting, session.Status)

	// Step 2: An observer subscribes and gets the snapshot
	observer := s.subscribe(session.ID)
	snapshot := s.nextSession(observer, model.EventUpdate)
	s.Equal(model.StatusWaiting, snapshot.Status)

	// Step 3: Black joins
	_, err = s.app.Engine.Join(s.ctx, session.ID, s.black.PublicKey)
	s.Require().NoError(err)
	started := s.nextSession(observer, model.EventStart)
	s.Equal(model.StatusActive, started.Status)
	s.Equal(s.black.PublicKey, started.Players.Black)

	// Step 4: Play fool's mate
	players := []signature.KeyPair{s.white, s.black}
	notations := []string{"f3", "e5", "g4", "Qh4#"}
	for i, notation := range notations[:3] {
		_, err := s.move(session.ID, players[i%2], notation)
		s.Require().NoError(err)
		update := s.nextSession(observer, model.EventUpdate)
		s.Equal(notations[:i+1], update.MoveLog)
	}

	final, err := s.move(session.ID, s.black, "Qh4#")
	s.Require().NoError(err)
	s.Equal(model.StatusReview, final.Status)

	// Step 5: End arrives before the final update
	end := s.next(observer)
	s.Equal(string(model.EventEnd), end.Event)
	var payload model.EndPayload
	s.Require().NoError(json.Unmarshal(end.Data, &payload))
	s.Equal(model.EndPayload{Status: model.StatusReview, Reason: model.ReasonCheckmate}, payload)

	update := s.nextSession(observer, model.EventUpdate)
	s.Equal(model.StatusReview, update.Status)
	s.Equal(notations, update.MoveLog)

	// Step 6: Review the game
	undone, err := s.app.Engine.Undo(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal([]string{"Qh4#"}, undone.RedoLog)
	s.Equal(undone.MoveLog, s.nextSession(observer, model.EventUpdate).MoveLog)

	redone, err := s.app.Engine.Redo(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(notations, redone.MoveLog)
	s.Equal(redone.MoveLog, s.nextSession(observer, model.EventUpdate).MoveLog)

	reset, err := s.app.Engine.Reset(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Empty(reset.MoveLog)
	s.Equal(model.StatusReview, reset.Status)
	s.Empty(s.nextSession(observer, model.EventUpdate).MoveLog)

	// Stored state matches what the observer saw
	stored, err := s.app.Storage.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(reset.Revision, stored.Revision)
}

// Test: Rejected operations leave state untouched and publish nothing
func (s *IntegrationSuite) TestRejectedOperationsAreSilent() {
	s.app.MockRandom.QueueString("0000000000ff")
	session, err := s.app.Engine.Create(s.ctx, s.white.PublicKey)
	s.Require().NoError(err)
	_, err = s.app.Engine.Join(s.ctx, session.ID, s.black.PublicKey)
	s.Require().NoError(err)

	observer := s.subscribe(session.ID)
	s.nextSession(observer, model.EventUpdate)

	_, err = s.move(session.ID, s.black, "e5")
	s.ErrorIs(err, model.ErrUnauthorized)
	_, err = s.move(session.ID, s.white, "e5")
	s.ErrorIs(err, model.ErrMoveRejected)
	_, err = s.app.Engine.Undo(s.ctx, session.ID)
	s.ErrorIs(err, model.ErrForbidden)

	select {
	case msg := <-observer.Messages():
		s.Failf("unexpected message", "%s", msg.Event)
	case <-time.After(100 * time.Millisecond):
	}

	stored, err := s.app.Storage.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Empty(stored.MoveLog)
}

// Test: Closing the app disconnects realtime clients
func (s *IntegrationSuite) TestCloseDisconnectsClients() {
	s.app.MockRandom.QueueString("000000000001")
	session, err := s.app.Engine.Create(s.ctx, s.white.PublicKey)
	s.Require().NoError(err)

	observer := s.subscribe(session.ID)
	s.nextSession(observer, model.EventUpdate)

	s.Require().NoError(s.app.Close())
	select {
	case <-observer.Done():
	case <-time.After(2 * time.Second):
		s.Fail("client was not closed")
	}
}

func TestNewWithRedisStorage(t *testing.T) {
	mini := miniredis.RunT(t)

	app, err := New(Config{
		StorageType: StorageTypeRedis,
		RedisConfig: &redisstorage.Config{URL: "redis://" + mini.Addr()},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = app.Close() }()

	key, err := signature.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	session, err := app.Engine.Create(context.Background(), key.PublicKey)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !mini.Exists("signedchess:session:" + string(session.ID)) {
		t.Fatalf("session %s not written to redis", session.ID)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{StorageType: StorageTypeRedis}); err == nil {
		t.Fatal("expected error without RedisConfig")
	}
	if _, err := New(Config{StorageType: "sqlite"}); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}

package factory

import (
	"time"

	"github.com/mcoot/signedchess/internal/dependencies/mocks"
	"github.com/mcoot/signedchess/internal/history"
	"github.com/mcoot/signedchess/internal/rules"
	"github.com/mcoot/signedchess/internal/storage/memory"
	"github.com/mcoot/signedchess/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and the in-process history authority
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockClock.Step = time.Second
	mockRandom := mocks.NewMockRandom()
	rulesAuthority := rules.New()

	app := newWithDependencies(store, history.NewLocal(rulesAuthority), rulesAuthority, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}

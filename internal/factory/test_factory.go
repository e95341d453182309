package factory

import (
	"time"

	"github.com/mcoot/territorybattle/internal/cache"
	"github.com/mcoot/territorybattle/internal/dependencies/mocks"
	"github.com/mcoot/territorybattle/internal/events"
	"github.com/mcoot/territorybattle/internal/storage/memory"
	"github.com/mcoot/territorybattle/internal/testutil"
)

// TestStart is the first timestamp handed out by a TestApp clock
var TestStart = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Concrete dependencies for test control
	Memory    *memory.Storage
	MockClock *mocks.MockClock
}

// NewTestApp creates an App on in-memory storage with no cache or events.
// The clock advances one second per read so every write gets its own timestamp.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewSteppingClock(TestStart, time.Second)

	app := newWithDependencies(store, cache.Nop{}, events.Nop{}, mockClock, testutil.NopLogger())

	return &TestApp{
		App:       app,
		Memory:    store,
		MockClock: mockClock,
	}
}

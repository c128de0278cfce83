package mocks

import (
	"sync"

	"github.com/mcoot/signedchess/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued strings are returned in order; once exhausted, String returns
// Fallback repeated to the requested length.
type MockRandom struct {
	mu sync.Mutex

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int

	// Fallback fills results once the queue is empty. An empty fallback yields "".
	Fallback string
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stringIndex >= len(r.StringResults) {
		if r.Fallback == "" || length <= 0 {
			return ""
		}
		out := make([]byte, length)
		for i := range out {
			out[i] = r.Fallback[i%len(r.Fallback)]
		}
		return string(out)
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = append(r.StringResults, values...)
}

// Calls reports how many queued results have been consumed
func (r *MockRandom) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stringIndex
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = nil
	r.stringIndex = 0
}

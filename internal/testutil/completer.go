package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/arlo-ai/arlo/internal/llm"
)

// FakeCompleter implements llm.Completer for tests. Each call records the
// request and pops the next queued response; an optional Handler overrides
// the queue entirely.
type FakeCompleter struct {
	mu        sync.Mutex
	Responses []*llm.Response
	Err       error
	Handler   func(req llm.Request) (*llm.Response, error)
	Requests  []llm.Request
}

// Complete implements llm.Completer.
func (f *FakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if f.Handler != nil {
		return f.Handler(req)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Responses) == 0 {
		return nil, errors.New("fake completer: no response queued")
	}
	resp := f.Responses[0]
	f.Responses = f.Responses[1:]
	return resp, nil
}

// CallCount returns the number of Complete invocations so far.
func (f *FakeCompleter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// LastRequest returns the most recent request, or a zero value if none.
func (f *FakeCompleter) LastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Requests) == 0 {
		return llm.Request{}
	}
	return f.Requests[len(f.Requests)-1]
}

package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// memoryIdempotencyStore is an in-process store with the same claim
// semantics as the redis one.
type memoryIdempotencyStore struct {
	mu       sync.Mutex
	values   map[string][]byte
	released []string
	checkErr error
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{values: map[string][]byte{}}
}

func (s *memoryIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkErr != nil {
		return false, nil, s.checkErr
	}
	if v, ok := s.values[key]; ok {
		return true, v, nil
	}
	if response == nil {
		response = []byte("pending")
	}
	s.values[key] = response
	return false, nil, nil
}

func (s *memoryIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = response
	return nil
}

func (s *memoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.released = append(s.released, key)
	return nil
}

func postWithKey(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := NewIdempotencyMiddleware(store, time.Minute).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"v1"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("/api/v1/vouchers", "k1"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("/api/v1/vouchers", "k1"))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header")
	}
	if second.Body.String() != `{"id":"v1"}` {
		t.Fatalf("unexpected replay body %s", second.Body.String())
	}
}

func TestIdempotencyMiddleware_ScopesKeysByEndpoint(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := NewIdempotencyMiddleware(store, time.Minute).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/vehicles/a/merge", "same"))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/vehicles/b/merge", "same"))

	if calls != 2 {
		t.Fatalf("expected both endpoints to run, got %d calls", calls)
	}
}

func TestIdempotencyMiddleware_ReleasesFailedRequests(t *testing.T) {
	store := newMemoryIdempotencyStore()
	status := http.StatusConflict
	calls := 0
	handler := NewIdempotencyMiddleware(store, time.Minute).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/vouchers", "k2"))
	if len(store.released) != 1 {
		t.Fatalf("expected key to be released after a failure")
	}

	status = http.StatusCreated
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postWithKey("/api/v1/vouchers", "k2"))

	if calls != 2 || rr.Code != http.StatusCreated {
		t.Fatalf("expected retry to run, calls=%d code=%d", calls, rr.Code)
	}
}

func TestIdempotencyMiddleware_InProgressConflict(t *testing.T) {
	store := newMemoryIdempotencyStore()
	store.values["POST /api/v1/vouchers k3"] = []byte("pending")

	var called bool
	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store, time.Minute).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("/api/v1/vouchers", "k3"))

	if called {
		t.Fatalf("handler must not run while the key is pending")
	}
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_StoreErrors(t *testing.T) {
	store := newMemoryIdempotencyStore()
	store.checkErr = context.DeadlineExceeded

	var called bool
	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store, 0).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("/api/v1/vouchers", "k4"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_SkipsReadsAndKeylessRequests(t *testing.T) {
	store := newMemoryIdempotencyStore()
	store.checkErr = context.Canceled

	calls := 0
	handler := NewIdempotencyMiddleware(store, time.Minute).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	get := httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/x", nil)
	get.Header.Set(IdempotencyKeyHeader, "k5")
	handler.ServeHTTP(httptest.NewRecorder(), get)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/vouchers", nil))

	if calls != 2 {
		t.Fatalf("expected both requests to bypass the store, got %d calls", calls)
	}
}

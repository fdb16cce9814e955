package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	texts []string
	err   error
}

func (c *countingEmbedder) EmbedDocuments(_ context.Context, docs []Document) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.texts = append(c.texts, Texts(docs)...)
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(docs))
	for i, d := range docs {
		out[i] = []float32{float32(len(d.Text)), 1}
	}
	return out, nil
}

type memoryStore struct {
	data    map[string][]float32
	readErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]float32{}}
}

func (m *memoryStore) GetMany(_ context.Context, keys []string) (map[string][]float32, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := map[string][]float32{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryStore) SetMany(_ context.Context, items map[string][]float32, _ time.Duration) error {
	for k, v := range items {
		m.data[k] = v
	}
	return nil
}

func TestCachedEmbedderReadsThrough(t *testing.T) {
	next := &countingEmbedder{}
	store := newMemoryStore()
	c := NewCachedEmbedder(next, store, "test-model", time.Hour, nil)
	ctx := context.Background()

	docs := []Document{{Text: "query text"}, {Key: "t-1", Text: "printer broken"}, {Key: "t-2", Text: "vpn down"}}
	first, err := c.EmbedDocuments(ctx, docs)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(first) != 3 || next.calls != 1 {
		t.Fatalf("first: vectors=%d calls=%d", len(first), next.calls)
	}
	if len(store.data) != 2 {
		t.Fatalf("cached %d entries, want 2 keyed documents", len(store.data))
	}

	second, err := c.EmbedDocuments(ctx, docs)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}
	// Only the unkeyed query text goes to the backend the second time.
	if got := next.texts[len(next.texts)-1]; got != "query text" || len(next.texts) != 4 {
		t.Fatalf("texts = %v", next.texts)
	}
	for i := range docs {
		if second[i][0] != first[i][0] {
			t.Fatalf("vector %d changed: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestCachedEmbedderReembedsEditedText(t *testing.T) {
	next := &countingEmbedder{}
	c := NewCachedEmbedder(next, newMemoryStore(), "m", time.Hour, nil)
	ctx := context.Background()

	if _, err := c.EmbedDocuments(ctx, []Document{{Key: "t-1", Text: "old"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.EmbedDocuments(ctx, []Document{{Key: "t-1", Text: "new text"}}); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}
}

func TestCachedEmbedderIgnoresStoreFailure(t *testing.T) {
	next := &countingEmbedder{}
	store := newMemoryStore()
	store.readErr = errors.New("redis down")
	c := NewCachedEmbedder(next, store, "m", time.Hour, nil)

	out, err := c.EmbedDocuments(context.Background(), []Document{{Key: "t-1", Text: "abc"}})
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if len(out) != 1 || out[0][0] != 3 {
		t.Fatalf("out = %v", out)
	}
}

func TestCachedEmbedderPropagatesBackendError(t *testing.T) {
	next := &countingEmbedder{err: Unavailable(errors.New("timeout"))}
	c := NewCachedEmbedder(next, newMemoryStore(), "m", time.Hour, nil)
	if _, err := c.EmbedDocuments(context.Background(), []Document{{Text: "x"}}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestBreakerEmbedderTrips(t *testing.T) {
	next := &countingEmbedder{err: errors.New("boom")}
	b := NewBreakerEmbedder(next, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)
	ctx := context.Background()
	docs := []Document{{Text: "x"}}

	for i := 0; i < 2; i++ {
		if _, err := b.EmbedDocuments(ctx, docs); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	if !b.Open() {
		t.Fatal("breaker should be open after consecutive failures")
	}
	_, err := b.EmbedDocuments(ctx, docs)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if next.calls != 2 {
		t.Fatalf("backend calls = %d, want 2", next.calls)
	}
}

func TestBreakerEmbedderIgnoresCancellation(t *testing.T) {
	next := &countingEmbedder{err: context.Canceled}
	b := NewBreakerEmbedder(next, BreakerConfig{ConsecutiveFailures: 1}, nil)
	for i := 0; i < 3; i++ {
		_, _ = b.EmbedDocuments(context.Background(), []Document{{Text: "x"}})
	}
	if b.Open() {
		t.Fatal("cancellations must not open the breaker")
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = req.Model
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		// Answer in reverse to check that results are placed by index.
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = item{Object: "embedding", Embedding: []float32{float32(j)}, Index: j}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1/", Model: "all-MiniLM-L6-v2"})
	out, err := e.EmbedDocuments(context.Background(), []Document{{Text: "a"}, {Text: "b"}, {Text: "c"}})
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if gotModel != "all-MiniLM-L6-v2" {
		t.Fatalf("model sent = %q", gotModel)
	}
	for i, v := range out {
		if len(v) != 1 || v[0] != float32(i) {
			t.Fatalf("vector %d = %v", i, v)
		}
	}

	gotModel = ""
	if _, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: srv.URL}).EmbedDocuments(context.Background(), []Document{{Text: "a"}}); err != nil {
		t.Fatalf("default model: %v", err)
	}
	if gotModel != DefaultModel {
		t.Fatalf("default model sent = %q, want %q", gotModel, DefaultModel)
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	err := Unavailable(context.Canceled)
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v lost part of its chain", err)
	}
}

func TestBreakerIgnoresCancelledBackendCalls(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	b := NewBreakerEmbedder(NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: srv.URL}),
		BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()
		_, err := b.EmbedDocuments(ctx, []Document{{Text: "x"}})
		cancel()
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("call %d: err = %v, want context.Canceled in chain", i, err)
		}
	}
	if b.Open() {
		t.Fatal("caller cancellations opened the breaker")
	}
}

func TestOpenAIEmbedderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: srv.URL})
	if _, err := e.EmbedDocuments(context.Background(), []Document{{Text: "a"}}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

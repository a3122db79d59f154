// Package drawer is the single-player topic drawer: a list of drawn topics with memos,
// plus the text formats used to share and archive them.
package drawer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"odai-party/internal/content"
	"odai-party/internal/game"
)

const DefaultMaxDraw = 5

var (
	ErrNotLoaded      = errors.New("content not loaded")
	ErrLimitReached   = errors.New("draw limit reached")
	ErrDrawFailed     = errors.New("could not generate a topic")
	ErrResultNotFound = errors.New("result not found")
)

// Result is one drawn topic.
type Result struct {
	ID      int64
	Text    string
	Reverse bool
	Memo    string
	DrawnAt time.Time
}

// Session owns the drawn list. The content source and generator are injected so the
// session holds no global state.
type Session struct {
	mu        sync.Mutex
	data      *content.DataSet
	generator *game.Generator
	results   []Result
	nextID    int64
	now       func() time.Time
}

func NewSession(data *content.DataSet, generator *game.Generator) *Session {
	if generator == nil {
		generator = game.NewGenerator()
	}
	return &Session{
		data:      data,
		generator: generator,
		now:       time.Now,
	}
}

// SetData swaps the content set, keeping drawn results.
func (s *Session) SetData(data *content.DataSet) {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

// DrawOne appends one topic unless limit results are already held. A limit below 1
// uses DefaultMaxDraw.
func (s *Session) DrawOne(limit int) (Result, error) {
	limit = normalizeMax(limit)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return Result{}, ErrNotLoaded
	}
	if len(s.results) >= limit {
		return Result{}, fmt.Errorf("%w (%d)", ErrLimitReached, limit)
	}
	result, ok := s.drawLocked()
	if !ok {
		return Result{}, ErrDrawFailed
	}
	s.results = append(s.results, result)
	return result, nil
}

// DrawMax fills the list up to limit and returns the new results. Failed draws are
// skipped rather than retried.
func (s *Session) DrawMax(limit int) ([]Result, error) {
	limit = normalizeMax(limit)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNotLoaded
	}
	remaining := limit - len(s.results)
	if remaining <= 0 {
		return nil, fmt.Errorf("%w (%d)", ErrLimitReached, limit)
	}
	added := make([]Result, 0, remaining)
	for i := 0; i < remaining; i++ {
		if result, ok := s.drawLocked(); ok {
			added = append(added, result)
		}
	}
	s.results = append(s.results, added...)
	return added, nil
}

// Redraw replaces the topic at index, keeping its memo.
func (s *Session) Redraw(index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return Result{}, ErrNotLoaded
	}
	if index < 0 || index >= len(s.results) {
		return Result{}, ErrResultNotFound
	}
	result, ok := s.drawLocked()
	if !ok {
		return Result{}, ErrDrawFailed
	}
	result.Memo = s.results[index].Memo
	s.results[index] = result
	return result, nil
}

func (s *Session) UpdateMemo(index int, memo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.results) {
		return ErrResultNotFound
	}
	s.results[index].Memo = memo
	return nil
}

// Clear drops every result and reports how many were removed.
func (s *Session) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.results)
	s.results = nil
	return n
}

func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

func (s *Session) drawLocked() (Result, bool) {
	topic, ok := s.generator.Generate(s.data)
	if !ok {
		return Result{}, false
	}
	s.nextID++
	return Result{
		ID:      s.nextID,
		Text:    topic.Text,
		Reverse: topic.Reverse,
		DrawnAt: s.now(),
	}, true
}

func normalizeMax(limit int) int {
	if limit < 1 {
		return DefaultMaxDraw
	}
	return limit
}

package widget

import "sync"

// Theme names a widget color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeStore holds the current theme and fans changes out to subscribers, the same
// observable shape browsers use to keep tabs in sync.
type ThemeStore struct {
	mu      sync.Mutex
	current Theme
	subs    map[int]func(Theme)
	nextSub int
}

// NewThemeStore starts with the light theme.
func NewThemeStore() *ThemeStore {
	return &ThemeStore{
		current: ThemeLight,
		subs:    make(map[int]func(Theme)),
	}
}

// Current returns the active theme.
func (s *ThemeStore) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set switches the theme, notifying subscribers only on an actual change.
func (s *ThemeStore) Set(t Theme) {
	s.mu.Lock()
	if s.current == t {
		s.mu.Unlock()
		return
	}
	s.current = t
	subs := make([]func(Theme), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(t)
	}
}

// Toggle flips between light and dark and returns the new theme.
func (s *ThemeStore) Toggle() Theme {
	s.mu.Lock()
	next := ThemeLight
	if s.current == ThemeLight {
		next = ThemeDark
	}
	s.mu.Unlock()

	s.Set(next)
	return next
}

// Subscribe registers fn for theme changes; the returned function unsubscribes.
func (s *ThemeStore) Subscribe(fn func(Theme)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

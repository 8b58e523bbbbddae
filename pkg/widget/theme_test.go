package widget_test

import (
	"testing"

	"github.com/zhouzirui/chatkit-broker/pkg/widget"
)

func TestThemeStoreDefaultsToLight(t *testing.T) {
	s := widget.NewThemeStore()
	if s.Current() != widget.ThemeLight {
		t.Fatalf("expected light default, got %s", s.Current())
	}
}

func TestThemeStoreNotifiesOnChangeOnly(t *testing.T) {
	s := widget.NewThemeStore()

	var seen []widget.Theme
	s.Subscribe(func(theme widget.Theme) {
		seen = append(seen, theme)
	})

	s.Set(widget.ThemeLight) // no-op
	s.Set(widget.ThemeDark)
	s.Set(widget.ThemeDark) // no-op

	if len(seen) != 1 || seen[0] != widget.ThemeDark {
		t.Fatalf("expected a single dark notification, got %v", seen)
	}
}

func TestThemeStoreToggle(t *testing.T) {
	s := widget.NewThemeStore()

	if got := s.Toggle(); got != widget.ThemeDark {
		t.Fatalf("expected toggle to dark, got %s", got)
	}
	if got := s.Toggle(); got != widget.ThemeLight {
		t.Fatalf("expected toggle back to light, got %s", got)
	}
}

func TestThemeStoreUnsubscribe(t *testing.T) {
	s := widget.NewThemeStore()

	count := 0
	unsubscribe := s.Subscribe(func(widget.Theme) { count++ })
	unsubscribe()

	s.Set(widget.ThemeDark)
	if count != 0 {
		t.Fatal("expected no notifications after unsubscribe")
	}
}

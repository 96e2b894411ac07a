// Package themeswitcher implements the theme-switcher element, a button
// cycling between light, dark and system color schemes.
package themeswitcher

import (
	"context"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/rohanthewiz/element"
)

// Tag is the element tag name.
const Tag = "theme-switcher"

// AttrTheme is the declared theme attribute.
const AttrTheme = "theme"

// EventThemeChange is emitted after every click with detail {theme}.
const EventThemeChange = "themechange"

// Switcher is the theme-switcher element.
type Switcher struct {
	core.BaseElement
	host  *core.Host
	theme Theme
}

// New creates a theme-switcher element.
func New() *Switcher {
	return &Switcher{theme: System}
}

func (s *Switcher) Tag() string { return Tag }

func (s *Switcher) ObservedAttributes() []string {
	return []string{AttrTheme}
}

// Theme returns the theme shown by the button.
func (s *Switcher) Theme() Theme {
	return s.theme
}

func (s *Switcher) Connected(ctx context.Context, host *core.Host) error {
	s.host = host
	s.theme = ParseTheme(host.AttributeOr(AttrTheme, ""))
	return host.Render(ctx)
}

func (s *Switcher) AttributeChanged(ctx context.Context, name, oldValue, newValue string) error {
	s.theme = ParseTheme(newValue)
	return s.host.Render(ctx)
}

// HandleEvent rotates the theme on click. The new value is written back to
// the theme attribute, which re-renders through AttributeChanged.
func (s *Switcher) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	if event != "click" {
		return nil
	}

	next := ParseTheme(s.host.AttributeOr(AttrTheme, "")).Next()
	if err := s.host.Reflect(ctx, AttrTheme, string(next)); err != nil {
		return err
	}
	s.host.Emit(EventThemeChange, map[string]any{"theme": string(next)})
	return nil
}

func (s *Switcher) Render(ctx context.Context) core.Renderer {
	b := element.NewBuilder()
	b.Style().T(switcherCSS)
	b.Button("id", "theme-switcher-btn",
		"data-theme", string(s.theme),
		"part", "btn",
		"data-ww-click", "").R(
		b.T(iconLight),
		b.T(iconDark),
		b.T(iconSystem),
	)
	return core.StringRenderer(b.String())
}

// Package increasr implements the increasr-frame element, a wrapper around
// the incr.easrng.net increment badge.
package increasr

import (
	"context"
	"net/url"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/widgets/markup"
	"github.com/rohanthewiz/element"
)

// Tag is the element tag name.
const Tag = "increasr-frame"

// DefaultSiteKey is used when no key is declared.
const DefaultSiteKey = "changeme"

// Attribute names. sitekey is the spelling used by older pages.
const (
	AttrSiteKey       = "site-key"
	AttrLegacySiteKey = "sitekey"
)

const (
	badgeURL      = "//incr.easrng.net/badge"
	badgeBackdrop = "background: url(//incr.easrng.net/bg.gif)"
)

// Frame is the increasr-frame element.
type Frame struct {
	core.BaseElement
	host    *core.Host
	siteKey string
}

// New creates an increasr-frame element.
func New() *Frame {
	return &Frame{siteKey: DefaultSiteKey}
}

func (f *Frame) Tag() string { return Tag }

func (f *Frame) ObservedAttributes() []string {
	return []string{AttrSiteKey, AttrLegacySiteKey}
}

// Connected reads the site key and renders the badge.
func (f *Frame) Connected(ctx context.Context, host *core.Host) error {
	f.host = host
	f.siteKey = f.resolveKey()
	return host.Render(ctx)
}

// AttributeChanged re-resolves the key. site-key wins over sitekey.
func (f *Frame) AttributeChanged(ctx context.Context, name, oldValue, newValue string) error {
	f.siteKey = f.resolveKey()
	return f.host.Render(ctx)
}

// SiteKey returns the key currently in use.
func (f *Frame) SiteKey() string {
	return f.siteKey
}

func (f *Frame) resolveKey() string {
	return f.host.AttributeOr(AttrSiteKey, f.host.AttributeOr(AttrLegacySiteKey, DefaultSiteKey))
}

func (f *Frame) Render(ctx context.Context) core.Renderer {
	b := element.NewBuilder()
	b.T(markup.Element("iframe",
		"id", "increasr-frame-inner",
		"src", BadgeURL(f.siteKey),
		"style", badgeBackdrop,
		"title", "increment badge",
		"width", "88",
		"height", "31",
		"frameborder", "0",
	))
	return core.StringRenderer(b.String())
}

// BadgeURL returns the badge iframe source for key.
func BadgeURL(key string) string {
	return badgeURL + "?key=" + url.QueryEscape(key)
}

package lanyard

import (
	"context"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/presence"
	"github.com/cuebitt/webwidgets/pkg/widgets/markup"
	"github.com/rohanthewiz/element"
)

func (s *Status) Render(ctx context.Context) core.Renderer {
	d := presence.Format(s.snapshot)

	b := element.NewBuilder()
	b.Style().T(statusCSS)
	b.DivClass("outer-container", "id", "lanyard-status-component").R(
		b.DivClass("avatar-container").R(
			b.T(markup.Void("img",
				"id", "pfp-img",
				"class", "avatar-img",
				"src", s.source.AvatarURL(s.userID),
				"alt", "",
			)),
			b.DivClass("activity-indicator", "id", "activity-indicator", "status", string(d.Indicator)).R(
				b.SpanClass("activity-tooltip", "id", "activity-tooltip").T(markup.Text(d.Tooltip)),
			),
		),
		b.DivClass("text-container").R(
			b.Div().R(
				b.SpanClass("display-name", "id", "display-name").T(markup.Text(d.Name)),
				b.T(" "),
				b.SpanClass(hidden("user-discriminator", d.SecondaryHidden), "id", "user-discriminator").T(markup.Text(d.Secondary)),
			),
			b.DivClass(hidden("activity-container", d.ActivityHidden), "id", "activity-container").R(
				b.Wrap(func() {
					if d.Emoji == nil {
						return
					}
					if d.Emoji.ImageURL != "" {
						b.T(markup.Void("img", "class", "activity-emoji", "src", d.Emoji.ImageURL, "alt", ""))
						return
					}
					b.SpanClass("activity-emoji").T(markup.Text(d.Emoji.Glyph))
				}),
				b.SpanClass("activity-type", "id", "activity-type").T(markup.Text(d.ActivityLabel)),
				b.T(" "),
				b.SpanClass("activity-name", "id", "activity-name").T(markup.Text(d.ActivityText)),
				b.DivClass(hidden("rich-presence-indicator", !d.RichPresence), "id", "rich-presence-indicator").R(
					b.T(richPresenceIcon),
				),
			),
		),
	)
	return core.StringRenderer(b.String())
}

func hidden(class string, hide bool) string {
	if hide {
		return class + " hide"
	}
	return class
}

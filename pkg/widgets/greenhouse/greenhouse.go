// Package greenhouse implements the webgarden-greenhouse element, a shelf
// display of embedded web garden pots.
package greenhouse

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/layout"
	"github.com/cuebitt/webwidgets/pkg/widgets/markup"
	"github.com/rohanthewiz/element"
)

// Tag is the element tag name.
const Tag = "webgarden-greenhouse"

// AttrPlants holds the comma-separated pot list.
const AttrPlants = "plants"

// PerShelf is the number of pots on one shelf.
const PerShelf = 3

var potURL = regexp.MustCompile(`(?i)^(https?)://[^\s/$.?#].[^\s]*$`)

// Greenhouse is the webgarden-greenhouse element.
type Greenhouse struct {
	core.BaseElement
	host   *core.Host
	plants []string
}

// New creates a webgarden-greenhouse element.
func New() *Greenhouse {
	return &Greenhouse{}
}

func (g *Greenhouse) Tag() string { return Tag }

func (g *Greenhouse) ObservedAttributes() []string {
	return []string{AttrPlants}
}

// Plants returns the resolved pot URLs.
func (g *Greenhouse) Plants() []string {
	return g.plants
}

func (g *Greenhouse) Connected(ctx context.Context, host *core.Host) error {
	g.host = host
	g.plants = ParsePlants(host.AttributeOr(AttrPlants, ""))
	return host.Render(ctx)
}

func (g *Greenhouse) AttributeChanged(ctx context.Context, name, oldValue, newValue string) error {
	g.plants = ParsePlants(newValue)
	return g.host.Render(ctx)
}

func (g *Greenhouse) Render(ctx context.Context) core.Renderer {
	b := element.NewBuilder()
	b.Style().T(shelvesCSS)
	b.Div("id", "greenhouse").R(
		element.ForEach(layout.Chunk(g.plants, PerShelf), func(shelf []string) {
			b.DivClass("stuffonshelf").R(
				element.ForEach(shelf, func(src string) {
					b.T(markup.Element("iframe",
						"src", src,
						"height", "250px",
						"width", "250px",
						"loading", "lazy",
						"scrolling", "no",
					))
				}),
			)
			b.T(markup.Void("img", "class", "shelf", "alt", ""))
		}),
	)
	return core.StringRenderer(b.String())
}

// ParsePlants splits a plants attribute into pot URLs. Blank entries are
// skipped.
func ParsePlants(attr string) []string {
	var plants []string
	for _, entry := range strings.Split(attr, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		plants = append(plants, PotURL(entry))
	}
	return plants
}

// PotURL returns entry unchanged when it is an http(s) URL, otherwise the
// web garden page of the Neocities site named entry.
func PotURL(entry string) string {
	if potURL.MatchString(entry) {
		return entry
	}
	return fmt.Sprintf("https://%s.neocities.org/webgarden.html", entry)
}

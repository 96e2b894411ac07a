package router

import (
	"context"
	"html"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rohanthewiz/element"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/widgets/markup"
)

// Page describes the document served at /.
type Page struct {
	Title   string
	Widgets []core.Placement
}

// Tags returns the distinct widget tags in order of first appearance.
func (p Page) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, w := range p.Widgets {
		if !seen[w.Tag] {
			seen[w.Tag] = true
			tags = append(tags, w.Tag)
		}
	}
	return tags
}

func (r *Router) handlePage(w http.ResponseWriter, req *http.Request) {
	body := r.RenderPage(req.Context())
	r.metrics.PageRenders.Inc()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

// RenderPage renders the configured page. Each widget is connected on a
// throwaway host and its first fragment is placed in a declarative shadow
// root, so the page reads correctly before the client script runs.
func (r *Router) RenderPage(ctx context.Context) string {
	frags := make([]string, len(r.page.Widgets))

	var wg sync.WaitGroup
	for i, p := range r.page.Widgets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			frags[i] = r.Prerender(ctx, p)
		}()
	}
	wg.Wait()

	title := r.page.Title
	if title == "" {
		title = "webwidgets"
	}

	b := element.NewBuilder()
	b.Html("lang", "en").R(
		b.Head().R(
			b.Meta("charset", "utf-8"),
			b.Meta("name", "viewport", "content", "width=device-width, initial-scale=1"),
			b.Title().T(html.EscapeString(title)),
			b.Script("src", PathScript,
				"data-endpoint", PathSocket,
				"data-tags", strings.Join(r.page.Tags(), ","),
				"defer", "defer").R(),
		),
		b.Body().R(
			b.Main().R(
				element.ForEach(frags, func(frag string) {
					b.T(frag)
				}),
			),
		),
	)

	return "<!DOCTYPE html>" + b.String()
}

// Prerender returns the host markup for one placement. A widget that fails
// to connect is emitted without a shadow root so the client can still
// attach it later.
func (r *Router) Prerender(ctx context.Context, p core.Placement) string {
	open := markup.Open(p.Tag, sortedPairs(p.Attributes)...)
	closeTag := "</" + p.Tag + ">"
	logger := logging.L(ctx).With(logging.String("tag", p.Tag))

	el, err := r.registry.Create(p.Tag)
	if err != nil {
		logger.Warn("unknown widget on page", logging.Err(err))
		return open + closeTag
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeouts.ElementConnect)
	defer cancel()

	host := core.NewHost(uuid.NewString(), el, nil, core.WithLogger(logger))
	defer host.Disconnect(context.Background())

	if err := host.Connect(ctx, p.Attributes); err != nil {
		logger.Warn("prerender failed", logging.Err(err))
		return open + closeTag
	}

	return open + `<template shadowrootmode="open">` + host.Fragment() + `</template>` + closeTag
}

func sortedPairs(attrs map[string]string) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, name, attrs[name])
	}
	return pairs
}

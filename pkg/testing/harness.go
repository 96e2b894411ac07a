package testing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/google/uuid"
)

// ElementTest is a harness for driving one element through its lifecycle.
type ElementTest struct {
	Host      *core.Host
	Transport *RecordingTransport
	t         *testing.T
}

// Mount creates a host for el, connects it with attrs and registers a
// cleanup that disconnects it.
func Mount(t *testing.T, el core.Element, attrs map[string]string, opts ...core.HostOption) *ElementTest {
	t.Helper()

	et := &ElementTest{
		Transport: NewRecordingTransport(),
		t:         t,
	}
	et.Host = core.NewHost(uuid.NewString(), el, et.Transport, opts...)

	if err := et.Host.Connect(context.Background(), attrs); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { et.Host.Disconnect(context.Background()) })
	return et
}

// Set changes an attribute and fails the test on error.
func (et *ElementTest) Set(name, value string) *ElementTest {
	et.t.Helper()
	if err := et.Host.SetAttribute(context.Background(), name, value); err != nil {
		et.t.Fatalf("SetAttribute %s=%q failed: %v", name, value, err)
	}
	return et
}

// Remove deletes an attribute and fails the test on error.
func (et *ElementTest) Remove(name string) *ElementTest {
	et.t.Helper()
	if err := et.Host.RemoveAttribute(context.Background(), name); err != nil {
		et.t.Fatalf("RemoveAttribute %s failed: %v", name, err)
	}
	return et
}

// Click dispatches a click event.
func (et *ElementTest) Click() *ElementTest {
	et.t.Helper()
	if err := et.Host.Dispatch(context.Background(), "click", nil); err != nil {
		et.t.Fatalf("click failed: %v", err)
	}
	return et
}

// HTML returns the current fragment.
func (et *ElementTest) HTML() string {
	return et.Host.Fragment()
}

// Renders returns the render count.
func (et *ElementTest) Renders() int64 {
	return et.Host.RenderCount()
}

// Assert returns HTML assertions over the current fragment.
func (et *ElementTest) Assert() *HTMLAssert {
	return NewHTMLAssert(et.t, et.HTML())
}

// HTMLAssert provides HTML-specific assertions.
type HTMLAssert struct {
	t    *testing.T
	html string
}

// NewHTMLAssert creates a new HTML assertion helper.
func NewHTMLAssert(t *testing.T, html string) *HTMLAssert {
	return &HTMLAssert{t: t, html: html}
}

// HasElement asserts that the HTML contains tag and each of attrs.
func (ha *HTMLAssert) HasElement(tag string, attrs ...string) *HTMLAssert {
	ha.t.Helper()

	if !strings.Contains(ha.html, "<"+tag) {
		ha.t.Errorf("element <%s> not found in HTML:\n%s", tag, ha.html)
		return ha
	}
	for _, attr := range attrs {
		if !strings.Contains(ha.html, attr) {
			ha.t.Errorf("attribute %q not found in HTML:\n%s", attr, ha.html)
		}
	}
	return ha
}

// HasText asserts that the HTML contains text.
func (ha *HTMLAssert) HasText(text string) *HTMLAssert {
	ha.t.Helper()
	if !strings.Contains(ha.html, text) {
		ha.t.Errorf("expected HTML to contain %q:\n%s", text, ha.html)
	}
	return ha
}

// LacksText asserts that the HTML does not contain text.
func (ha *HTMLAssert) LacksText(text string) *HTMLAssert {
	ha.t.Helper()
	if strings.Contains(ha.html, text) {
		ha.t.Errorf("expected HTML not to contain %q:\n%s", text, ha.html)
	}
	return ha
}

// HasClass asserts that some element carries class.
func (ha *HTMLAssert) HasClass(class string) *HTMLAssert {
	ha.t.Helper()
	pattern := fmt.Sprintf(`class="([^"]* )?%s( [^"]*)?"`, regexp.QuoteMeta(class))
	if !regexp.MustCompile(pattern).MatchString(ha.html) {
		ha.t.Errorf("expected an element with class %q:\n%s", class, ha.html)
	}
	return ha
}

// Count returns how many times substr occurs in the HTML.
func (ha *HTMLAssert) Count(substr string) int {
	return strings.Count(ha.html, substr)
}

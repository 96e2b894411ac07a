package widgets

import (
	"testing"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/presence"
	wwtest "github.com/cuebitt/webwidgets/pkg/testing"
	"github.com/google/go-cmp/cmp"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(Deps{Status: wwtest.NewStubSource(&presence.Snapshot{})})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"increasr-frame", "lanyard-status", "theme-switcher", "webgarden-greenhouse"}
	if diff := cmp.Diff(want, reg.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	for _, tag := range want {
		el, err := reg.Create(tag)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", tag, err)
		}
		if el.Tag() != tag {
			t.Errorf("expected tag %s, got %s", tag, el.Tag())
		}
	}

	first, _ := reg.Create("theme-switcher")
	second, _ := reg.Create("theme-switcher")
	if first == second {
		t.Error("expected a fresh element per instance")
	}

	if err := reg.Register("x-late", func() core.Element { return nil }); err != core.ErrRegistrySealed {
		t.Errorf("expected sealed registry, got %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := core.NewRegistry()
	if err := Register(reg, Deps{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := Register(reg, Deps{}); err != core.ErrDuplicateTag {
		t.Errorf("expected ErrDuplicateTag, got %v", err)
	}
}

// Package widgets registers the built-in elements.
package widgets

import (
	"time"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/statusapi"
	"github.com/cuebitt/webwidgets/pkg/widgets/greenhouse"
	"github.com/cuebitt/webwidgets/pkg/widgets/increasr"
	"github.com/cuebitt/webwidgets/pkg/widgets/lanyard"
	"github.com/cuebitt/webwidgets/pkg/widgets/themeswitcher"
)

// Deps carries what element factories need.
type Deps struct {
	// Status serves lanyard-status. Defaults to the public Lanyard API.
	Status statusapi.Source

	// IntervalUnit is the length of one update-interval step.
	IntervalUnit time.Duration
}

// Register adds every built-in element to reg.
func Register(reg *core.Registry, deps Deps) error {
	if deps.Status == nil {
		deps.Status = statusapi.NewClient()
	}
	if deps.IntervalUnit <= 0 {
		deps.IntervalUnit = time.Second
	}

	factories := map[string]func() core.Element{
		increasr.Tag:      func() core.Element { return increasr.New() },
		themeswitcher.Tag: func() core.Element { return themeswitcher.New() },
		greenhouse.Tag:    func() core.Element { return greenhouse.New() },
		lanyard.Tag: func() core.Element {
			return lanyard.New(deps.Status, lanyard.WithUnit(deps.IntervalUnit))
		},
	}
	for tag, factory := range factories {
		if err := reg.Register(tag, factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a sealed registry holding the built-in elements.
func NewRegistry(deps Deps) (*core.Registry, error) {
	reg := core.NewRegistry()
	if err := Register(reg, deps); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}

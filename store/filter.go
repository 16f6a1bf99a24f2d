package store

import (
	"fmt"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/world"
)

// GlobalRadius means "no spatial filter": the whole world.
const GlobalRadius = -1

// ValidationError marks bad user-supplied filter input. It is resolved at
// the command boundary before any storage work starts.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "filter: " + e.Reason }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Filter is the query intent shared by lookup and rollback. It is built by
// whatever command layer fronts the engine and is never persisted.
type Filter struct {
	// Users restricts to changes caused by the named actors (display
	// names, including synthetic causes like "#water"). Empty = anyone.
	Users []string `json:"users,omitempty"`
	// Since is the seconds-ago time window. 0 = no time filter.
	Since int64 `json:"since,omitempty"`
	// World is the target world name. Always required.
	World string `json:"world"`
	// Radius is the spatial bound around the anchor position.
	// nil = caller's position with the configured default radius,
	// GlobalRadius = whole world, otherwise must be > 0.
	Radius *int `json:"radius,omitempty"`
	// Actions restricts to the listed change kinds. Empty = all.
	Actions []action.Action `json:"actions,omitempty"`
	// Include/Exclude test the effective name of the changed thing.
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// Limits carries the configured bounds filters are validated against.
type Limits struct {
	DefaultRadius int
	MaxRadius     int
}

// Resolve validates f against the caller's anchor position and returns the
// bounding box to query, or nil for a global query. Non-positional callers
// (anchor == nil) may only use GlobalRadius: a plain radius has nothing to
// center on.
func (f *Filter) Resolve(anchor *world.Vec3, lim Limits) (*world.BoundingBox, error) {
	if f.World == "" {
		return nil, validationf("world is required")
	}
	if f.Since < 0 {
		return nil, validationf("time window cannot be negative")
	}
	for _, a := range f.Actions {
		if !a.Valid() {
			return nil, validationf("unknown action code %d", a)
		}
	}

	radius := lim.DefaultRadius
	if f.Radius != nil {
		radius = *f.Radius
	}
	switch {
	case radius == GlobalRadius:
		return nil, nil
	case radius <= 0:
		return nil, validationf("radius must be positive or global")
	case lim.MaxRadius > 0 && radius > lim.MaxRadius:
		return nil, validationf("radius %d exceeds maximum %d", radius, lim.MaxRadius)
	}
	if anchor == nil {
		return nil, validationf("a plain radius needs a position; use a global radius instead")
	}
	box := world.Box(*anchor, radius)
	return &box, nil
}

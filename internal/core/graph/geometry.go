package graph

// Well-known parameter names the graph itself interprets.
const (
	ParamPatchingRect     = "patching_rect"
	ParamPresentationRect = "presentation_rect"
	ParamPresentation     = "presentation"
	ParamVarname          = "varname"
	ParamLocked           = "locked"
)

// ViewMode selects which of the two layouts of a container is shown.
type ViewMode uint8

const (
	// ViewModeLinked makes a frame follow its container's mode.
	ViewModeLinked ViewMode = iota
	ViewModePatching
	ViewModePresentation
)

func (m ViewMode) String() string {
	switch m {
	case ViewModePatching:
		return "patching"
	case ViewModePresentation:
		return "presentation"
	default:
		return "linked"
	}
}

type Rect struct {
	X, Y, W, H float64
}

// Overlaps reports an intersection with non-zero area. Touching edges and
// empty rectangles never overlap.
func (r Rect) Overlaps(other Rect) bool {
	w := min(r.X+r.W, other.X+other.W) - max(r.X, other.X)
	h := min(r.Y+r.H, other.Y+other.H) - max(r.Y, other.Y)
	return w > 0 && h > 0
}

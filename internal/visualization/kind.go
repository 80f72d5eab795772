// Package visualization draws the measurement figures: diameter histograms
// with a fitted normal curve, violin and strip plots, and the branch density
// scatter. Figures are written as PNG through fsutil.
package visualization

import "fmt"

// Kind is an output figure type.
type Kind int

const (
	Histogram Kind = iota + 1
	ViolinPlot
	ScatterPlot
	DensityBranchCount
)

var kindNames = map[Kind]string{
	Histogram:          "histogram",
	ViolinPlot:         "violinplot",
	ScatterPlot:        "scatterplot",
	DensityBranchCount: "density/branch_count",
}

var kindSuffixes = map[Kind]string{
	Histogram:          "-hist.png",
	ViolinPlot:         "-violin.png",
	ScatterPlot:        "-scatter.png",
	DensityBranchCount: "-scatter.png",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Suffix is appended to the base name to form the figure file name.
func (k Kind) Suffix() string {
	return kindSuffixes[k]
}

// UsesBranches reports whether the kind is drawn from branch records rather
// than diameters.
func (k Kind) UsesBranches() bool {
	return k == DensityBranchCount
}

// Kinds lists every output kind in declaration order.
func Kinds() []Kind {
	return []Kind{Histogram, ViolinPlot, ScatterPlot, DensityBranchCount}
}

// UnsupportedKindError is returned for an output type tag that names no Kind.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported output type: %s", e.Kind)
}

// ParseKind maps an output type tag to its Kind. Matching is exact.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, &UnsupportedKindError{Kind: s}
}

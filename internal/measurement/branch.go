package measurement

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when a branch record of one shape is used
// where the other is required.
var ErrShapeMismatch = errors.New("branch measurement shape mismatch")

// Shape selects which branch CSV layout a deployment reads. It is chosen by
// configuration and never inferred from the data.
type Shape int

const (
	// ShapeSkeleton is the voxel-skeleton analysis layout.
	ShapeSkeleton Shape = iota + 1
	// ShapeDensity is the vessel density analysis layout.
	ShapeDensity
)

var shapeNames = map[Shape]string{
	ShapeSkeleton: "skeleton",
	ShapeDensity:  "density",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape maps "skeleton" or "density" to a Shape.
func ParseShape(s string) (Shape, error) {
	for shape, name := range shapeNames {
		if name == s {
			return shape, nil
		}
	}
	return 0, fmt.Errorf("unknown branch shape %q, must be skeleton or density", s)
}

// Branch is a branch measurement of either shape.
type Branch interface {
	BranchID() int
	Shape() Shape
}

// SkeletonBranch is one row of a voxel-skeleton analysis.
type SkeletonBranch struct {
	ID                  int
	BranchCount         int
	JunctionCount       int
	EndPointVoxelCount  int
	JunctionVoxelCount  int
	SlabVoxelCount      int
	AvgBranchLength     float64
	TriplePointCount    int
	QuadruplePointCount int
	MaxBranchLength     float64
}

func (b SkeletonBranch) BranchID() int { return b.ID }
func (b SkeletonBranch) Shape() Shape  { return ShapeSkeleton }

// SkeletonColumns is the column layout of a skeleton CSV.
var SkeletonColumns = []string{
	"id", "branch_count", "junction_count", "end_point_voxel_count", "junction_voxel_count",
	"slab_voxel_count", "avg_branch_length", "triple_point_count", "quadruple_point_count",
	"max_branch_length",
}

// ParseSkeletonRow builds a SkeletonBranch from a 10 column row.
func ParseSkeletonRow(row []string) (SkeletonBranch, error) {
	c := newCursor(row, SkeletonColumns)
	if err := c.checkCount(); err != nil {
		return SkeletonBranch{}, err
	}
	b := SkeletonBranch{
		ID:                  c.readInt(),
		BranchCount:         c.readInt(),
		JunctionCount:       c.readInt(),
		EndPointVoxelCount:  c.readInt(),
		JunctionVoxelCount:  c.readInt(),
		SlabVoxelCount:      c.readInt(),
		AvgBranchLength:     c.readFloat(),
		TriplePointCount:    c.readInt(),
		QuadruplePointCount: c.readInt(),
		MaxBranchLength:     c.readFloat(),
	}
	if c.err != nil {
		return SkeletonBranch{}, c.err
	}
	return b, nil
}

// DensityBranch is one row of a vessel density analysis.
type DensityBranch struct {
	ID                 int
	Label              string
	AreaPercentage     float64
	VasculatureLength  float64
	NumBranches        int
	AvgBranchLength    float64
	MaxBranchLength    float64
	MeanVesselDistance float64
	MinVesselDistance  float64
}

func (b DensityBranch) BranchID() int { return b.ID }
func (b DensityBranch) Shape() Shape  { return ShapeDensity }

// DensityColumns is the column layout of a density CSV.
var DensityColumns = []string{
	"id", "label", "area_percentage", "vasculature_length", "num_branches",
	"avg_branch_length", "max_branch_length", "mean_vessel_distance", "min_vessel_distance",
}

// ParseDensityRow builds a DensityBranch from a 9 column row.
func ParseDensityRow(row []string) (DensityBranch, error) {
	c := newCursor(row, DensityColumns)
	if err := c.checkCount(); err != nil {
		return DensityBranch{}, err
	}
	b := DensityBranch{
		ID:                 c.readInt(),
		Label:              c.readString(),
		AreaPercentage:     c.readFloat(),
		VasculatureLength:  c.readFloat(),
		NumBranches:        c.readInt(),
		AvgBranchLength:    c.readFloat(),
		MaxBranchLength:    c.readFloat(),
		MeanVesselDistance: c.readFloat(),
		MinVesselDistance:  c.readFloat(),
	}
	if c.err != nil {
		return DensityBranch{}, c.err
	}
	return b, nil
}

// BranchRowParser returns the row parser for a configured shape.
func BranchRowParser(shape Shape) (func([]string) (Branch, error), error) {
	switch shape {
	case ShapeSkeleton:
		return func(row []string) (Branch, error) {
			b, err := ParseSkeletonRow(row)
			if err != nil {
				return nil, err
			}
			return b, nil
		}, nil
	case ShapeDensity:
		return func(row []string) (Branch, error) {
			b, err := ParseDensityRow(row)
			if err != nil {
				return nil, err
			}
			return b, nil
		}, nil
	default:
		return nil, fmt.Errorf("no row parser for %s", shape)
	}
}

// DensityBranches narrows branches to the density shape, failing on the
// first record of another shape.
func DensityBranches(bs []Branch) ([]DensityBranch, error) {
	out := make([]DensityBranch, 0, len(bs))
	for _, b := range bs {
		d, ok := b.(DensityBranch)
		if !ok {
			return nil, fmt.Errorf("%w: record %d is %s, want %s", ErrShapeMismatch, b.BranchID(), b.Shape(), ShapeDensity)
		}
		out = append(out, d)
	}
	return out, nil
}

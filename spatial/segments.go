package spatial

import (
	"cmp"
	"slices"

	"github.com/dhconnelly/rtreego"

	"github.com/lixenwraith/navcrowd/core"
)

const segmentPad = 1e-6

// Segment is a static line segment tagged with a caller id
type Segment struct {
	ID   int
	A, B core.Vec2
}

// SegmentHit is a query result
type SegmentHit struct {
	Segment
	DistSq float64
}

type segmentEntry struct {
	seg  Segment
	rect rtreego.Rect
}

func (e *segmentEntry) Bounds() rtreego.Rect { return e.rect }

// SegmentIndex answers radius queries over static segments
type SegmentIndex struct {
	tree *rtreego.Rtree
	n    int
}

// NewSegmentIndex creates an empty index
func NewSegmentIndex() *SegmentIndex {
	return &SegmentIndex{tree: rtreego.NewTree(2, 25, 50)}
}

// Len returns the number of indexed segments
func (s *SegmentIndex) Len() int { return s.n }

// Insert adds a segment
func (s *SegmentIndex) Insert(seg Segment) error {
	minX, maxX := min(seg.A[0], seg.B[0]), max(seg.A[0], seg.B[0])
	minY, maxY := min(seg.A[1], seg.B[1]), max(seg.A[1], seg.B[1])
	rect, err := rtreego.NewRect(
		rtreego.Point{minX - segmentPad, minY - segmentPad},
		[]float64{maxX - minX + 2*segmentPad, maxY - minY + 2*segmentPad},
	)
	if err != nil {
		return err
	}
	s.tree.Insert(&segmentEntry{seg: seg, rect: rect})
	s.n++
	return nil
}

// Query returns segments within radius of center, nearest first, ties by id
func (s *SegmentIndex) Query(center core.Vec2, radius float64) []SegmentHit {
	if s.n == 0 || radius <= 0 {
		return nil
	}
	box, err := rtreego.NewRect(
		rtreego.Point{center[0] - radius, center[1] - radius},
		[]float64{2 * radius, 2 * radius},
	)
	if err != nil {
		return nil
	}
	rangeSq := radius * radius
	var hits []SegmentHit
	for _, obj := range s.tree.SearchIntersect(box) {
		e := obj.(*segmentEntry)
		if d := DistSqPointSegment(e.seg.A, e.seg.B, center); d < rangeSq {
			hits = append(hits, SegmentHit{Segment: e.seg, DistSq: d})
		}
	}
	slices.SortFunc(hits, func(a, b SegmentHit) int {
		if c := cmp.Compare(a.DistSq, b.DistSq); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return hits
}

// DistSqPointSegment is the squared distance from p to segment a-b
func DistSqPointSegment(a, b, p core.Vec2) float64 {
	ab := b.Sub(a)
	den := ab.LenSqr()
	if den == 0 {
		return p.Sub(a).LenSqr()
	}
	r := p.Sub(a).Dot(ab) / den
	switch {
	case r < 0:
		return p.Sub(a).LenSqr()
	case r > 1:
		return p.Sub(b).LenSqr()
	default:
		return p.Sub(a.Add(ab.Mul(r))).LenSqr()
	}
}

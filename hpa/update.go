package hpa

import (
	"slices"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
)

// NotifyRegionChange rebuilds the abstraction around a changed area: the
// entrances on every boundary of an overlapping cluster, then the intra edges
// of every cluster on either side of those boundaries
func (p *Pathfinder) NotifyRegionChange(area core.Area) {
	if area.Empty() {
		return
	}
	area = area.Expand(1).Clamp(p.grid.Width(), p.grid.Height())
	if area.Empty() {
		return
	}

	var keys []boundaryKey
	touched := make(map[int]struct{})
	for id := range p.clusters {
		if !p.clusters[id].Area.Intersects(area) {
			continue
		}
		touched[id] = struct{}{}
		for _, k := range p.boundaryKeys(id) {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	for _, k := range keys {
		p.clearBoundary(k)
		touched[k.a] = struct{}{}
		touched[k.b] = struct{}{}
	}
	for _, k := range keys {
		p.buildBoundary(k)
	}
	for id := range touched {
		p.buildIntraEdges(id)
	}

	p.log.Debug("hpa region rebuilt",
		zap.Int("boundaries", len(keys)),
		zap.Int("clusters", len(touched)))
}

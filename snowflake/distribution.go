package snowflake

import (
	"github.com/arcveil/meshtopo/meshcfg"
	"github.com/arcveil/meshtopo/topo"
)

// distribution is the pure result of spec §4.4's sizing algorithm: how
// many mirrors go to the central ring, how many go to external
// substructures in total, and which ring positions host an external (and
// how large each one is).
type distribution struct {
	ringMirrors     int
	externalMirrors int
	perPosition     []int // length ringMirrors; 0 where no external attaches
}

// computeDistribution implements spec §4.4 steps 1-3: split total between
// ring and external budgets by cfg.ExternalStructureRatio (each budget is
// rounded down, so when both products have a fractional part the two sum
// to total-1), find the
// attach points at every cfg.RingBridgeGap-th ring index, and divide the
// external budget across them. The per-attach-point estimate
// (externalMirrors*gap)/ringMirrors approximates externalMirrors /
// numAttachPoints (since numAttachPoints ~= ringMirrors/gap) and is
// decremented until the sum no longer exceeds the external budget; any
// remainder left over is handed out one-per-slot, ascending index, so the
// allocation consumes exactly as much of the external budget as the
// per-attach-point estimate allows.
func computeDistribution(total int, cfg meshcfg.Properties) distribution {
	ringMirrors := int(float64(total) * (1 - cfg.ExternalStructureRatio))
	externalMirrors := int(float64(total) * cfg.ExternalStructureRatio)

	perPosition := make([]int, ringMirrors)
	if ringMirrors == 0 {
		return distribution{ringMirrors, externalMirrors, perPosition}
	}

	gap := cfg.RingBridgeGap
	var attachIdx []int
	for i := 0; i < ringMirrors; i += gap {
		attachIdx = append(attachIdx, i)
	}
	if len(attachIdx) == 0 || externalMirrors == 0 {
		return distribution{ringMirrors, externalMirrors, perPosition}
	}

	perExternal := (externalMirrors * gap) / ringMirrors
	for perExternal > 0 && perExternal*len(attachIdx) > externalMirrors {
		perExternal--
	}
	remainder := externalMirrors - perExternal*len(attachIdx)

	for k, idx := range attachIdx {
		n := perExternal
		if k < remainder {
			n++
		}
		perPosition[idx] = n
	}

	return distribution{ringMirrors, externalMirrors, perPosition}
}

// formulaForKind returns the pure link-count formula (spec §4.3 P3) for
// kind, duplicated here (rather than constructing a throwaway strategy
// instance) so GetNumTargetLinks/GetPredictedNumTargetLinks can be
// computed for hypothetical mirror counts without touching the store.
func formulaForKind(kind topo.StructureType, cfg meshcfg.Properties) func(int) int {
	switch kind {
	case topo.Ring:
		return func(n int) int {
			if n < cfg.MinRingSize {
				return 0
			}

			return n
		}
	case topo.Line:
		return func(n int) int {
			if n < cfg.MinLineSize {
				return 0
			}

			return n - 1
		}
	case topo.Tree, topo.BalancedTree, topo.DepthLimitTree, topo.Star:
		return func(n int) int {
			if n < 1 {
				return 0
			}

			return n - 1
		}
	case topo.FullyConnected:
		return func(n int) int {
			if n < 1 {
				return 0
			}

			return n * (n - 1) / 2
		}
	case topo.NConnected:
		d := cfg.TargetLinksPerNode

		return func(n int) int {
			if n < 1 {
				return 0
			}
			if n >= 2*d {
				return n * d / 2
			}

			return n * (n - 1) / 2
		}
	default:
		return func(int) int { return 0 }
	}
}

// numTargetLinksForTotal sums the ring's own link formula with every
// external attachment's formula plus one bridge link per attachment,
// cycling cfg.Rotation across non-zero attach positions in the same
// ascending-index order BuildStructure uses. The bridge link itself is a
// real Link created by ensureBridgeLink and must be counted for
// GetNumTargetLinks to match the observed link count (spec §8 scenario 5).
func numTargetLinksForTotal(total int, cfg meshcfg.Properties) int {
	dist := computeDistribution(total, cfg)
	sum := formulaForKind(topo.Ring, cfg)(dist.ringMirrors)

	if len(cfg.Rotation) == 0 {
		return sum
	}

	rotationIdx := 0
	for _, n := range dist.perPosition {
		if n <= 0 {
			continue
		}
		kind := topo.StructureType(int(cfg.Rotation[rotationIdx%len(cfg.Rotation)]))
		rotationIdx++
		sum += formulaForKind(kind, cfg)(n) + 1
	}

	return sum
}

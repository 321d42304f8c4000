package snowflake

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcveil/meshtopo/meshcfg"
	"github.com/arcveil/meshtopo/topo"
)

// TestComputeDistribution_MatchesWorkedScenario reproduces spec §8
// scenario 5: externalStructureRatio=0.4, ringBridgeGap=2, total=20 ->
// ringMirrors=12, externalMirrors=8, attach points at ring indices
// {0,2,4,6,8,10} summing to 8.
func TestComputeDistribution_MatchesWorkedScenario(t *testing.T) {
	cfg := meshcfg.NewProperties(
		meshcfg.WithExternalStructureRatio(0.4),
		meshcfg.WithRingBridgeGap(2),
		meshcfg.WithRotation(meshcfg.KindStar),
	)

	dist := computeDistribution(20, cfg)
	require.Equal(t, 12, dist.ringMirrors)
	require.Equal(t, 8, dist.externalMirrors)

	sum := 0
	var attach []int
	for idx, n := range dist.perPosition {
		if n > 0 {
			attach = append(attach, idx)
			sum += n
		}
	}
	require.Equal(t, []int{0, 2, 4, 6, 8, 10}, attach)
	require.Equal(t, 8, sum)
}

func TestComputeDistribution_NoExternalsWhenRatioIsZero(t *testing.T) {
	cfg := meshcfg.NewProperties(meshcfg.WithExternalStructureRatio(0.0000001), meshcfg.WithRingBridgeGap(3))

	dist := computeDistribution(9, cfg)
	require.Equal(t, 8, dist.ringMirrors, "floor(9 * (1 - 1e-7)) = 8")
	for _, n := range dist.perPosition {
		require.Zero(t, n)
	}
}

func TestFormulaForKind_MatchesEachStrategyFormula(t *testing.T) {
	cfg := meshcfg.NewProperties()

	require.Equal(t, 0, formulaForKind(topo.Ring, cfg)(2))
	require.Equal(t, 5, formulaForKind(topo.Ring, cfg)(5))
	require.Equal(t, 0, formulaForKind(topo.Line, cfg)(1))
	require.Equal(t, 4, formulaForKind(topo.Line, cfg)(5))
	require.Equal(t, 4, formulaForKind(topo.Star, cfg)(5))
	require.Equal(t, 10, formulaForKind(topo.FullyConnected, cfg)(5))
	require.Equal(t, 3, formulaForKind(topo.NConnected, cfg)(3), "n < 2d falls back to complete graph")
	require.Equal(t, 8, formulaForKind(topo.NConnected, cfg)(8), "n >= 2d: n*d/2")
}

// TestNumTargetLinksForTotal_MatchesWorkedScenario reproduces spec §8
// scenario 5's full count: predicted links from GetNumTargetLinks equal
// the observed link count after InitNetwork (20 total -> 20 links: 12
// ring + 2 star-internal + 6 bridges).
func TestNumTargetLinksForTotal_MatchesWorkedScenario(t *testing.T) {
	cfg := meshcfg.NewProperties(
		meshcfg.WithExternalStructureRatio(0.4),
		meshcfg.WithRingBridgeGap(2),
		meshcfg.WithRotation(meshcfg.KindStar),
	)

	require.Equal(t, 20, numTargetLinksForTotal(20, cfg))
}

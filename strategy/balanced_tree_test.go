package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcveil/meshtopo/action"
	"github.com/arcveil/meshtopo/meshcfg"
	"github.com/arcveil/meshtopo/meshnet"
	"github.com/arcveil/meshtopo/strategy"
	"github.com/arcveil/meshtopo/substructure"
	"github.com/arcveil/meshtopo/topo"
)

// TestBalancedTree_MatchesWorkedScenario reproduces spec §8 scenario 3:
// L=3, n=7 -> 6 links, max depth 2, 4 leaves.
func TestBalancedTree_MatchesWorkedScenario(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	bt := strategy.NewBalancedTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	links, err := bt.InitNetwork(7, 0)
	require.NoError(t, err)
	require.Len(t, links, 6)
	require.Equal(t, 6, bt.Base.GetNumTargetLinks())
	require.True(t, bt.ValidateTopology())

	res, err := topo.GetAllNodesInStructure(store, bt.CurrentRoot(), topo.BalancedTree, nil)
	require.NoError(t, err)

	maxDepth := 0
	leaves := 0
	for _, n := range res.Order {
		if d := res.Depth[n.ID()]; d > maxDepth {
			maxDepth = d
		}
		if topo.IsTerminal(n, topo.BalancedTree) {
			leaves++
		}
	}
	require.Equal(t, 2, maxDepth, "scenario 3: tree depth is 2")
	require.Equal(t, 4, leaves, "scenario 3: 4 leaves")
}

func TestBalancedTree_HandleAddNewMirrorsFillsToCapacityFirst(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	bt := strategy.NewBalancedTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := bt.InitNetwork(1, 0)
	require.NoError(t, err)

	links, err := bt.HandleAddNewMirrors(6, 1)
	require.NoError(t, err)
	require.Len(t, links, 6)
	require.Equal(t, 6, bt.Base.GetNumTargetLinks())
	require.True(t, bt.ValidateTopology())
}

func TestBalancedTree_RemoveNodesFromStructurePrefersThinnestBranch(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	bt := strategy.NewBalancedTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := bt.InitNetwork(7, 0)
	require.NoError(t, err)
	root := bt.CurrentRoot()

	_, err = bt.HandleRemoveMirrors(2, 1)
	require.NoError(t, err)
	require.Equal(t, 4, bt.Base.GetNumTargetLinks())
	require.True(t, bt.ValidateTopology())
	require.Equal(t, root.ID(), bt.CurrentRoot().ID())
}

func TestBalancedTree_ReconciliationIsIdempotent(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	bt := strategy.NewBalancedTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := bt.InitNetwork(7, 0)
	require.NoError(t, err)

	again, err := substructure.BuildAndUpdateLinks(net, store, bt.CurrentRoot(), topo.BalancedTree, nil, 1)
	require.NoError(t, err)
	require.Empty(t, again, "P5: second pass creates/removes nothing")
}

func TestBalancedTree_GetPredictedNumTargetLinksMirrorChange(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	bt := strategy.NewBalancedTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := bt.InitNetwork(7, 0)
	require.NoError(t, err)

	predicted := bt.GetPredictedNumTargetLinks(action.MirrorChange{NewMirrorCount: 10}, 7, 3)
	require.Equal(t, 9, predicted)
}

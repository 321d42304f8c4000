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

func TestTree_InitNetworkBuildsTree(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	tr := strategy.NewTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	links, err := tr.InitNetwork(7, 0)
	require.NoError(t, err)
	require.Len(t, links, 6, "n=7 -> n-1=6 links (P3)")
	require.Equal(t, 6, tr.Base.GetNumTargetLinks())
	require.True(t, tr.ValidateTopology())
}

func TestTree_RootHasFullCapacityNonRootOneLess(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	tr := strategy.NewTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(2)), nil)

	_, err := tr.InitNetwork(6, 0)
	require.NoError(t, err)

	root := tr.CurrentRoot()
	require.LessOrEqual(t, len(root.ChildrenOfType(topo.Tree)), 2)

	// L=2: the root takes 2 children, every other node 1, so the root's
	// first child holds exactly one of the remaining mirrors.
	first := store.MustGet(root.ChildrenOfType(topo.Tree)[0].ChildID)
	require.Len(t, first.ChildrenOfType(topo.Tree), 1)
}

func TestTree_HandleAddNewMirrorsAttachesShallowestParent(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	tr := strategy.NewTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := tr.InitNetwork(1, 0)
	require.NoError(t, err)

	links, err := tr.HandleAddNewMirrors(5, 1)
	require.NoError(t, err)
	require.Len(t, links, 5)
	require.Equal(t, 5, tr.Base.GetNumTargetLinks())
	require.True(t, tr.ValidateTopology())
}

func TestTree_RemoveNodesFromStructureRemovesDeepestLeafNotRoot(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	tr := strategy.NewTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := tr.InitNetwork(7, 0)
	require.NoError(t, err)

	root := tr.CurrentRoot()
	removed, err := tr.HandleRemoveMirrors(2, 1)
	require.NoError(t, err)
	_ = removed
	require.Equal(t, 4, tr.Base.GetNumTargetLinks())
	require.NotNil(t, tr.CurrentRoot())
	require.Equal(t, root.ID(), tr.CurrentRoot().ID(), "root is never removed")
}

func TestTree_ReconciliationIsIdempotent(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	tr := strategy.NewTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := tr.InitNetwork(6, 0)
	require.NoError(t, err)

	again, err := substructure.BuildAndUpdateLinks(net, store, tr.CurrentRoot(), topo.Tree, nil, 1)
	require.NoError(t, err)
	require.Empty(t, again, "P5: second pass creates/removes nothing")
}

func TestTree_GetPredictedNumTargetLinksMirrorChange(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	tr := strategy.NewTree(net, store, meshcfg.NewProperties(meshcfg.WithLinksPerMirror(3)), nil)

	_, err := tr.InitNetwork(5, 0)
	require.NoError(t, err)

	predicted := tr.GetPredictedNumTargetLinks(action.MirrorChange{NewMirrorCount: 9}, 5, 3)
	require.Equal(t, 8, predicted)
}

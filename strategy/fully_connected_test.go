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

func TestFullyConnected_InitNetworkBuildsCompleteGraph(t *testing.T) {
	net := meshnet.NewNetwork(4)
	store := topo.NewStore()
	f := strategy.NewFullyConnected(net, store, meshcfg.NewProperties(), nil)

	links, err := f.InitNetwork(5, 0)
	require.NoError(t, err)
	require.Len(t, links, 10, "K5 has 10 links (P3)")
	require.Equal(t, 10, f.Base.GetNumTargetLinks())
	require.True(t, f.ValidateTopology())
}

func TestFullyConnected_HandleAddNewMirrorsConnectsToAll(t *testing.T) {
	net := meshnet.NewNetwork(4)
	store := topo.NewStore()
	f := strategy.NewFullyConnected(net, store, meshcfg.NewProperties(), nil)

	_, err := f.InitNetwork(3, 0)
	require.NoError(t, err)

	links, err := f.HandleAddNewMirrors(1, 1)
	require.NoError(t, err)
	require.Len(t, links, 3, "new node connects to all 3 existing members")
	require.Equal(t, 6, f.Base.GetNumTargetLinks())
}

func TestFullyConnected_ReconciliationIsIdempotent(t *testing.T) {
	net := meshnet.NewNetwork(4)
	store := topo.NewStore()
	f := strategy.NewFullyConnected(net, store, meshcfg.NewProperties(), nil)

	_, err := f.InitNetwork(4, 0)
	require.NoError(t, err)

	again, err := substructure.BuildAndUpdateLinks(net, store, f.CurrentRoot(), topo.FullyConnected, nil, 1)
	require.NoError(t, err)
	require.Empty(t, again, "P5: second pass creates/removes nothing")
}

func TestFullyConnected_GetPredictedNumTargetLinksMirrorChange(t *testing.T) {
	net := meshnet.NewNetwork(4)
	store := topo.NewStore()
	f := strategy.NewFullyConnected(net, store, meshcfg.NewProperties(), nil)

	_, err := f.InitNetwork(4, 0)
	require.NoError(t, err)

	predicted := f.GetPredictedNumTargetLinks(action.MirrorChange{NewMirrorCount: 6}, 4, 2)
	require.Equal(t, 15, predicted)
}

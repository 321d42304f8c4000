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

func TestRing_InitNetworkBuildsCycle(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	r := strategy.NewRing(net, store, meshcfg.NewProperties(), nil)

	links, err := r.InitNetwork(5, 0)
	require.NoError(t, err)
	require.Len(t, links, 5, "ring of 5 has 5 links (P3)")
	require.Equal(t, 5, r.Base.GetNumTargetLinks())
	require.True(t, r.ValidateTopology())
}

func TestRing_InitNetworkBelowMinSizeFails(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	r := strategy.NewRing(net, store, meshcfg.NewProperties(), nil)

	_, err := r.InitNetwork(2, 0)
	require.ErrorIs(t, err, substructure.ErrInfeasibleSize)
}

func TestRing_HandleAddNewMirrorsGrowsCycle(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	r := strategy.NewRing(net, store, meshcfg.NewProperties(), nil)

	_, err := r.InitNetwork(4, 0)
	require.NoError(t, err)

	links, err := r.HandleAddNewMirrors(3, 1)
	require.NoError(t, err)
	require.Len(t, links, 5, "4 links created plus the head's old successor link shut down")
	require.Equal(t, 7, r.Base.GetNumTargetLinks())
	require.True(t, r.ValidateTopology())
}

func TestRing_HandleRemoveMirrorsBelowMinFails(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	r := strategy.NewRing(net, store, meshcfg.NewProperties(), nil)

	_, err := r.InitNetwork(3, 0)
	require.NoError(t, err)

	_, err = r.HandleRemoveMirrors(1, 1)
	require.ErrorIs(t, err, substructure.ErrInfeasibleSize)
}

func TestRing_ReconciliationIsIdempotent(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	r := strategy.NewRing(net, store, meshcfg.NewProperties(), nil)

	_, err := r.InitNetwork(6, 0)
	require.NoError(t, err)

	again, err := substructure.BuildAndUpdateLinks(net, store, r.CurrentRoot(), topo.Ring, nil, 1)
	require.NoError(t, err)
	require.Empty(t, again, "P5: second pass creates/removes nothing")
}

func TestRing_GetPredictedNumTargetLinksMirrorChange(t *testing.T) {
	net := meshnet.NewNetwork(2)
	store := topo.NewStore()
	r := strategy.NewRing(net, store, meshcfg.NewProperties(), nil)

	_, err := r.InitNetwork(5, 0)
	require.NoError(t, err)

	predicted := r.GetPredictedNumTargetLinks(action.MirrorChange{NewMirrorCount: 8}, 5, 2)
	require.Equal(t, 8, predicted)
}

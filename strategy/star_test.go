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

func TestStar_InitNetworkBuildsCenterAndLeaves(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	s := strategy.NewStar(net, store, meshcfg.NewProperties(), nil)

	links, err := s.InitNetwork(6, 0)
	require.NoError(t, err)
	require.Len(t, links, 5, "star of 6 has 5 links (P3)")
	require.Equal(t, 5, s.Base.GetNumTargetLinks())
	require.True(t, s.ValidateTopology())
}

func TestStar_AddNodesToStructureAttachesToCenter(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	s := strategy.NewStar(net, store, meshcfg.NewProperties(), nil)

	_, err := s.InitNetwork(3, 0)
	require.NoError(t, err)

	links, err := s.HandleAddNewMirrors(2, 1)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, 4, s.Base.GetNumTargetLinks())
	require.True(t, s.ValidateTopology())
}

func TestStar_RemoveNodesFromStructureRemovesLeaves(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	s := strategy.NewStar(net, store, meshcfg.NewProperties(), nil)

	_, err := s.InitNetwork(5, 0)
	require.NoError(t, err)

	_, err = s.HandleRemoveMirrors(2, 1)
	require.NoError(t, err)
	require.Equal(t, 2, s.Base.GetNumTargetLinks())
	require.True(t, s.ValidateTopology())
}

func TestStar_ReconciliationIsIdempotent(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	s := strategy.NewStar(net, store, meshcfg.NewProperties(), nil)

	_, err := s.InitNetwork(4, 0)
	require.NoError(t, err)

	again, err := substructure.BuildAndUpdateLinks(net, store, s.CurrentRoot(), topo.Star, nil, 1)
	require.NoError(t, err)
	require.Empty(t, again, "P5: second pass creates/removes nothing")
}

func TestStar_GetPredictedNumTargetLinksMirrorChange(t *testing.T) {
	net := meshnet.NewNetwork(3)
	store := topo.NewStore()
	s := strategy.NewStar(net, store, meshcfg.NewProperties(), nil)

	_, err := s.InitNetwork(4, 0)
	require.NoError(t, err)

	predicted := s.GetPredictedNumTargetLinks(action.MirrorChange{NewMirrorCount: 9}, 4, 2)
	require.Equal(t, 8, predicted)
}

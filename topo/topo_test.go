package topo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcveil/meshtopo/topo"
)

func TestStore_NewNodeAssignsAscendingIDs(t *testing.T) {
	s := topo.NewStore()

	a := s.NewNode(topo.Ring)
	b := s.NewNode(topo.Ring)

	require.Less(t, int64(a.ID()), int64(b.ID()))
	require.Equal(t, topo.Ring, a.DeriveTypeID())
	require.True(t, a.HasType(topo.Ring))
}

func TestNode_AddChildSetsParentOnlyWhenRequested(t *testing.T) {
	s := topo.NewStore()
	parent := s.NewNode(topo.Line)
	child := s.NewNode(topo.Line)

	parent.AddChild(child, topo.Line, parent.ID(), true)

	got, ok := child.Parent()
	require.True(t, ok)
	require.Equal(t, parent.ID(), got)

	records := parent.Children()
	require.Len(t, records, 1)
	require.Equal(t, child.ID(), records[0].ChildID)
}

func TestNode_AddChildMeshShapedLeavesParentUnset(t *testing.T) {
	s := topo.NewStore()
	head := s.NewNode(topo.FullyConnected)
	other := s.NewNode(topo.FullyConnected)

	head.AddChild(other, topo.FullyConnected, head.ID(), false)

	_, ok := other.Parent()
	require.False(t, ok, "mesh-shaped graft must not set a single parent")
}

func TestNode_GraftAddsSecondTypeToExistingRecord(t *testing.T) {
	s := topo.NewStore()
	head := s.NewNode(topo.Ring)
	member := s.NewNode(topo.Ring)

	head.AddChild(member, topo.Ring, head.ID(), true)
	head.AddChild(member, topo.Snowflake, head.ID(), false)

	rec, ok := head.FindChildRecordByID(member.ID())
	require.True(t, ok)
	require.Len(t, rec.Types, 2)
}

func TestNode_RemoveChildDropsRecordWhenLastTypeRemoved(t *testing.T) {
	s := topo.NewStore()
	head := s.NewNode(topo.Ring)
	member := s.NewNode(topo.Ring)

	head.AddChild(member, topo.Ring, head.ID(), true)

	remains := head.RemoveChild(member.ID(), topo.Ring)
	require.False(t, remains)

	_, ok := head.FindChildRecordByID(member.ID())
	require.False(t, ok)
}

func TestGetAllNodesInStructure_WalksOnlyTaggedType(t *testing.T) {
	s := topo.NewStore()
	head := s.NewNode(topo.Ring)
	a := s.NewNode(topo.Ring)
	b := s.NewNode(topo.Ring)
	decoy := s.NewNode(topo.Star)

	head.AddChild(a, topo.Ring, head.ID(), true)
	a.AddChild(b, topo.Ring, head.ID(), true)
	head.AddChild(decoy, topo.Star, head.ID(), true)

	res, err := topo.GetAllNodesInStructure(s, head, topo.Ring, nil)
	require.NoError(t, err)
	require.Len(t, res.Order, 3)
	require.Equal(t, 2, res.Depth[b.ID()])
	require.False(t, res.Visited[decoy.ID()])
}

func TestCanAcceptMoreChildren_RespectsBound(t *testing.T) {
	s := topo.NewStore()
	head := s.NewNode(topo.Star)
	leaf := s.NewNode(topo.Star)
	head.AddChild(leaf, topo.Star, head.ID(), true)

	require.False(t, topo.CanAcceptMoreChildren(head, topo.Star, 1))
	require.True(t, topo.CanAcceptMoreChildren(head, topo.Star, 2))
	require.True(t, topo.CanAcceptMoreChildren(head, topo.Star, 0))
}

func TestIsTerminal(t *testing.T) {
	s := topo.NewStore()
	head := s.NewNode(topo.Line)
	leaf := s.NewNode(topo.Line)

	require.True(t, topo.IsTerminal(head, topo.Line))
	head.AddChild(leaf, topo.Line, head.ID(), true)
	require.False(t, topo.IsTerminal(head, topo.Line))
	require.True(t, topo.IsTerminal(leaf, topo.Line))
}

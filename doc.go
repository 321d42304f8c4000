// Package meshtopo is a topology planner/executor for a simulated overlay
// network of replicating mirrors connected by bidirectional links. Given a
// target mirror count and a per-mirror link budget, it builds, grows,
// shrinks, and restarts concrete wiring patterns — ring, line, tree,
// balanced tree, depth-limited tree, n-regular, fully-connected, and a
// composite "snowflake" assembled from the simpler ones — and answers
// planning queries (how many links will this network carry under a
// hypothetical mirror-count, degree, or topology change) without
// mutating anything.
//
// The module is organized as:
//
//	meshid/       monotone ID generation shared by mirrors, links, and nodes
//	meshnet/      Mirror, Link, Network, MirrorCursor — the concrete collaborators
//	meshcfg/      typed configuration surface (functional options)
//	meshlog/      small operational-logging wrapper
//	topo/         the planning-plane vertex model: StructureType tags, Node, child records, arena
//	substructure/ the shared planner machinery: planning/execution planes, graft/sever, reconciliation
//	strategy/     the eight leaf topology strategies
//	snowflake/    the composite strategy assembled from leaf strategies
//	action/       the three tagged prediction requests a strategy must price
//
// The core of the module is the substructure builder framework
// (substructure/ plus topo/): it plans a typed, hierarchical node graph
// without touching the link set, diff-applies that plan against the
// current link set to create or tear down channels, and composes several
// strategies into one coherent whole by grafting and severing
// substructures at named attachment points. Everything else — the eight
// leaf strategies and the snowflake composite — is a concrete instance of
// that framework.
//
// meshtopo is a pure planner over a mutable graph, driven serially by an
// outer simulator it does not implement: no message delivery, no
// persistence, no concurrency between mirrors, no cost model.
package meshtopo

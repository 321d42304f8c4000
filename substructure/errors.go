package substructure

import "errors"

// Sentinel errors for the substructure framework (spec §7). Callers MUST
// use errors.Is to branch on semantics; messages are not part of the
// contract. Following builder/errors.go's declare-then-wrap convention:
// call sites add context with fmt.Errorf("%w", ...).
var (
	// ErrInfeasibleSize indicates an operation would drop a structure
	// below its minimum size (ring < 3, line < 2) or exceed a hard
	// maximum (depth limit).
	ErrInfeasibleSize = errors.New("substructure: infeasible size")

	// ErrMirrorExhausted indicates the mirror cursor yielded no mirror
	// when one was required.
	ErrMirrorExhausted = errors.New("substructure: mirror cursor exhausted")

	// ErrTypeIncompatibility indicates the root of a reconciled
	// substructure does not carry the structure type being reconciled.
	ErrTypeIncompatibility = errors.New("substructure: root lacks structure type")

	// ErrAsymmetricLink indicates reconciliation observed aLinked XOR
	// bLinked between two mirrors: invariant I1 has been violated by
	// something outside this package's own CreateLink/ShutdownLink path.
	ErrAsymmetricLink = errors.New("substructure: asymmetric link membership")

	// ErrStructureInvariantViolation indicates ValidateTopology returned
	// false after a build/modify step (I5 or I7 violated).
	ErrStructureInvariantViolation = errors.New("substructure: structure invariant violation")
)

// UnknownAction is not a failure: per spec §7, a strategy that receives
// an action.Action variant its GetPredictedNumTargetLinks does not
// recognize must fall back to its current GetNumTargetLinks rather than
// error. Base.GetPredictedNumTargetLinks implements that fallback
// directly; this sentinel exists only so callers that want to log the
// fallback can name it, not so they can branch a failure on it.
var ErrUnknownAction = errors.New("substructure: unrecognized action variant")

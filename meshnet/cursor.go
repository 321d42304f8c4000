package meshnet

// MirrorCursor is the single-producer, deterministic allocator of fresh
// mirrors described in spec §4.5. It is the only authorized source of
// mirrors for planners: strategies never call Network.addMirror directly.
//
// Determinism (spec §5): allocation follows strictly ascending mirror ID
// order, matching the order mirrors were created in. Two runs against
// identical inputs and an identical call sequence therefore hand out
// mirrors in an identical order.
type MirrorCursor struct {
	net      *Network
	position int // index into the network's ascending-ID mirror ordering
}

// HasNextMirror reports whether at least one more usable mirror remains
// ahead of the cursor's current position, without consuming it.
func (c *MirrorCursor) HasNextMirror() bool {
	ids := c.net.GetMirrors()
	for i := c.position; i < len(ids); i++ {
		if ids[i].IsUsableForNetwork() {
			return true
		}
	}

	return false
}

// GetNextMirror advances the cursor to and returns the next usable
// mirror, skipping any mirror that has been shut down since it was
// created. Returns (nil, false) if no usable mirror remains.
func (c *MirrorCursor) GetNextMirror() (*Mirror, bool) {
	ids := c.net.GetMirrors()
	for c.position < len(ids) {
		m := ids[c.position]
		c.position++
		if m.IsUsableForNetwork() {
			return m, true
		}
	}

	return nil, false
}

// CreateMirrors allocates k brand-new usable mirrors, registers them with
// the network, and returns them in creation order. Fresh mirrors carry no
// creation timestamp of their own in this model.
//
// Complexity: O(k).
func (c *MirrorCursor) CreateMirrors(k int) []*Mirror {
	out := make([]*Mirror, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, c.net.addMirror())
	}

	return out
}

// GetNumUsableMirrors returns the count of mirrors in the network that
// have not been shut down, irrespective of the cursor's position.
func (c *MirrorCursor) GetNumUsableMirrors() int {
	n := 0
	for _, m := range c.net.GetMirrors() {
		if m.IsUsableForNetwork() {
			n++
		}
	}

	return n
}

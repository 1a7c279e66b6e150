// Package merkle implements the fixed-depth append-only merkle tree used
// throughout the bridge core: the withdrawal request tree, per-user
// manual-claim subtrees and the global manual-claim tree are all instances
// of the same structure.
//
// The root is a pure function of (depth, next_index, leaves): appending a
// leaf walks the path from the new leaf's slot to the root, combining with
// precomputed zero-subtree hashes wherever a sibling subtree is still empty.
// A new root is computed from the stored left-sibling frontier (one subtree
// root per level), next_index and the appended leaf, without ever
// materializing the whole tree.
package merkle

import (
	"crypto/sha256"
	"fmt"
)

// leafTag and nodeTag domain-separate leaf hashes from internal-node hashes
// with 0x00/0x01 prefix bytes.
const (
	leafTag byte = 0x00
	nodeTag byte = 0x01
)

// MaxDepth bounds tree capacity to 2^MaxDepth leaves; 32 comfortably exceeds
// any realistic deposit/withdrawal/manual-claim count.
const MaxDepth = 32

func hashLeaf(tag string, leaf [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write([]byte{leafTag})
	h.Write(leaf[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashNode(tag string, left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write([]byte{nodeTag})
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// zeroSubtreeTable[i] is the root of an empty subtree of height i (i.e. one
// holding 2^i unset leaves), for a given domain tag.
func zeroSubtreeTable(tag string, depth int) []([32]byte) {
	table := make([][32]byte, depth+1)
	var empty [32]byte
	table[0] = hashLeaf(tag, empty)
	for i := 1; i <= depth; i++ {
		table[i] = hashNode(tag, table[i-1], table[i-1])
	}
	return table
}

// Tree is a fixed-depth append-only merkle tree. Leaves are appended at
// next_index in order; the root is recomputed incrementally on each Append.
//
// Tree keeps the full set of "filled" subtree roots along the rightmost
// append path (one per level), which is all that's needed to extend the
// tree without rehashing previously-appended leaves.
type Tree struct {
	tag       string
	depth     int
	nextIndex uint64
	zero      [][32]byte
	// filled[i] holds the root of the leftmost completed subtree of height i
	// that is an ancestor of the next append slot, if one exists at this point.
	filled map[int][32]byte
	root   [32]byte
}

// New constructs an empty tree of the given depth under a domain tag. The
// tag participates in every leaf and node hash, so trees for different
// purposes (deposits vs withdrawals vs a given user's manual-claim subtree)
// never collide even over identical leaf bytes.
func New(tag string, depth int) (*Tree, error) {
	if depth <= 0 || depth > MaxDepth {
		return nil, fmt.Errorf("merkle: depth %d out of range (1..%d)", depth, MaxDepth)
	}
	zero := zeroSubtreeTable(tag, depth)
	return &Tree{
		tag:    tag,
		depth:  depth,
		zero:   zero,
		filled: make(map[int][32]byte),
		root:   zero[depth],
	}, nil
}

// Capacity returns the maximum number of leaves this tree can hold.
func (t *Tree) Capacity() uint64 { return uint64(1) << uint(t.depth) }

// NextIndex returns the index the next Append will occupy.
func (t *Tree) NextIndex() uint64 { return t.nextIndex }

// Root returns the tree's current root.
func (t *Tree) Root() [32]byte { return t.root }

// Append inserts leaf at NextIndex and advances NextIndex. It returns the
// new root. Fails with an error (capacity exhausted) rather than silently
// wrapping, matching the spec's TreeFull edge case.
func (t *Tree) Append(leaf [32]byte) ([32]byte, error) {
	if t.nextIndex >= t.Capacity() {
		return t.root, fmt.Errorf("merkle: tree full at depth %d", t.depth)
	}

	cur := hashLeaf(t.tag, leaf)
	idx := t.nextIndex
	for level := 0; level < t.depth; level++ {
		if idx%2 == 0 {
			// cur becomes the left sibling of a not-yet-completed pair;
			// remember it so the eventual right sibling can complete it.
			t.filled[level] = cur
			cur = hashNode(t.tag, cur, t.zero[level])
		} else {
			left := t.filled[level]
			cur = hashNode(t.tag, left, cur)
			delete(t.filled, level)
		}
		idx /= 2
	}
	t.root = cur
	t.nextIndex++
	return t.root, nil
}

// PreviewAppend computes the root that would result from appending leaf,
// without mutating the tree. Callers that must present a proof's claimed
// post-append root before the proof is verified (manual-claim, most notably)
// use this to avoid committing a leaf whose proof then fails.
func (t *Tree) PreviewAppend(leaf [32]byte) ([32]byte, error) {
	if t.nextIndex >= t.Capacity() {
		return t.root, fmt.Errorf("merkle: tree full at depth %d", t.depth)
	}
	filled := make(map[int][32]byte, len(t.filled))
	for k, v := range t.filled {
		filled[k] = v
	}
	cur := hashLeaf(t.tag, leaf)
	idx := t.nextIndex
	for level := 0; level < t.depth; level++ {
		if idx%2 == 0 {
			filled[level] = cur
			cur = hashNode(t.tag, cur, t.zero[level])
		} else {
			left := filled[level]
			cur = hashNode(t.tag, left, cur)
		}
		idx /= 2
	}
	return cur, nil
}

// AppendMany appends leaves in order, short-circuiting on the first failure.
func (t *Tree) AppendMany(leaves [][32]byte) ([32]byte, error) {
	for _, l := range leaves {
		if _, err := t.Append(l); err != nil {
			return t.root, err
		}
	}
	return t.root, nil
}

package blocks

// Arena indexes blocks by id while keeping the original sequence.
// Parent references are resolved by lookup only; the arena never builds child pointers.
type Arena struct {
	seq  []Block
	byID map[string]int
}

// NewArena indexes list. Later duplicates of an id shadow earlier ones in lookups
// but all blocks stay in the sequence.
func NewArena(list []Block) *Arena {
	a := &Arena{seq: list, byID: make(map[string]int, len(list))}
	for i, b := range list {
		a.byID[b.ID] = i
	}
	return a
}

// Len returns the number of blocks.
func (a *Arena) Len() int { return len(a.seq) }

// Blocks returns the blocks in their original order.
func (a *Arena) Blocks() []Block { return a.seq }

// Get looks up a block by id.
func (a *Arena) Get(id string) (Block, bool) {
	i, ok := a.byID[id]
	if !ok {
		return Block{}, false
	}
	return a.seq[i], true
}

// Parent returns the parent of b, if it is present in the arena.
func (a *Arena) Parent(b Block) (Block, bool) {
	if b.ParentID == "" {
		return Block{}, false
	}
	return a.Get(b.ParentID)
}

// Roots returns every block without a parent, in order.
func (a *Arena) Roots() []Block {
	var roots []Block
	for _, b := range a.seq {
		if b.IsRoot() {
			roots = append(roots, b)
		}
	}
	return roots
}

// ChildrenOf returns the blocks whose parent is id, in sequence order.
func (a *Arena) ChildrenOf(id string) []Block {
	var out []Block
	for _, b := range a.seq {
		if b.ParentID == id {
			out = append(out, b)
		}
	}
	return out
}

// Package alloc implements the simulated heap: a first-fit-named,
// best-fit-implemented free-list allocator that coalesces a freed block
// with every adjacent free neighbor (spec §4.3, §9), grounded on
// original_source/src/memory.c.
package alloc

const align = 8

// Overhead is the simulated cost of one metadata record, used to decide
// whether a leftover free tail is worth splitting off rather than handed
// out as internal fragmentation. This mirrors sizeof(MemoryBlock) in
// original_source/src/memory.c; there's no real struct to size in Go, so
// the constant stands in for it directly.
const Overhead = 24

// block is one node of the free list, covering [Start, Start+Size) of the
// simulated address space. The list is singly linked in heap order; no two
// blocks overlap and together they cover the entire heap with no gaps.
type block struct {
	start  int
	size   int
	isFree bool
	next   *block
}

func (b *block) end() int { return b.start + b.size }

// Allocator is a fixed-size simulated heap. It never allocates real memory;
// Allocate returns an integer address into the simulated address space.
type Allocator struct {
	totalSize int
	freeList  *block

	allocations int
	frees       int
}

// New creates an Allocator over a simulated heap of the given size, starting
// as a single free block covering the whole region.
func New(totalSize int) *Allocator {
	return &Allocator{
		totalSize: totalSize,
		freeList:  &block{start: 0, size: totalSize, isFree: true},
	}
}

func roundUp(size int) int {
	return (size + align - 1) &^ (align - 1)
}

// Allocate reserves a block of at least size bytes and returns its starting
// address. ok is false if size is zero or no free block is large enough, per
// spec §7's "invalid argument ... return false/none silently".
//
// The allocator picks the smallest free block that fits (best-fit), despite
// being named "first-fit" historically — original_source/src/memory.c's
// comment calls this "first-fit" while its loop keeps the smallest
// sufficient candidate found so far. Spec §9 directs following the
// implemented semantics, not the comment.
func (a *Allocator) Allocate(size int) (addr int, ok bool) {
	if size <= 0 {
		return 0, false
	}
	size = roundUp(size)

	var best *block
	for b := a.freeList; b != nil; b = b.next {
		if b.isFree && b.size >= size {
			if best == nil || b.size < best.size {
				best = b
			}
		}
	}
	if best == nil {
		return 0, false
	}

	if best.size > size+Overhead {
		tail := &block{
			start:  best.start + size,
			size:   best.size - size,
			isFree: true,
			next:   best.next,
		}
		best.next = tail
		best.size = size
	}

	best.isFree = false
	a.allocations++
	return best.start, true
}

func (a *Allocator) find(addr int) *block {
	for b := a.freeList; b != nil; b = b.next {
		if b.start == addr {
			return b
		}
	}
	return nil
}

// Free releases the block starting at addr, returning false on a double-free
// or unknown address with no change to the heap (spec §7).
//
// Coalescing repeats until no adjacent free block remains, so the freed
// block is merged with both its free neighbors if it has two. This departs
// from original_source/src/memory.c's memory_free, which returns after the
// first merge and can leave two adjacent free blocks behind.
func (a *Allocator) Free(addr int) bool {
	b := a.find(addr)
	if b == nil || b.isFree {
		return false
	}
	b.isFree = true
	a.frees++

	for merged := true; merged; {
		merged = false
		for cur := a.freeList; cur != nil && !merged; cur = cur.next {
			if !cur.isFree || cur == b {
				continue
			}
			switch {
			case cur.end() == b.start:
				// merge b into the preceding free block cur, which survives.
				cur.size += b.size
				cur.next = b.next
				b = cur
				merged = true
			case b.end() == cur.start:
				// merge cur into b, which takes cur's place in the list.
				b.size += cur.size
				b.next = cur.next
				if a.freeList == cur {
					a.freeList = b
				} else {
					for p := a.freeList; p != nil; p = p.next {
						if p.next == cur {
							p.next = b
							break
						}
					}
				}
				merged = true
			}
		}
	}
	return true
}

// Stats summarizes allocator activity and utilization, replacing
// original_source/src/memory.c's memory_print_stats (console formatting
// itself is an out-of-scope concern per spec §1; this returns structured
// data for the CLI to print).
type Stats struct {
	TotalSize   int
	FreeSpace   int
	UsedSpace   int
	Allocations int
	Frees       int
}

// Stats reports current heap utilization and lifetime allocation counters.
func (a *Allocator) Stats() Stats {
	free := 0
	for b := a.freeList; b != nil; b = b.next {
		if b.isFree {
			free += b.size
		}
	}
	return Stats{
		TotalSize:   a.totalSize,
		FreeSpace:   free,
		UsedSpace:   a.totalSize - free,
		Allocations: a.allocations,
		Frees:       a.frees,
	}
}

// BlockSnapshot is a read-only view of one free-list node, exposed for
// invariant and round-trip tests.
type BlockSnapshot struct {
	Start  int
	Size   int
	IsFree bool
}

// Snapshot returns the free list in heap order.
func (a *Allocator) Snapshot() []BlockSnapshot {
	var out []BlockSnapshot
	for b := a.freeList; b != nil; b = b.next {
		out = append(out, BlockSnapshot{Start: b.start, Size: b.size, IsFree: b.isFree})
	}
	return out
}

package alloc

// search returns the index of the free block strategy s picks for a request
// of n bytes, or -1 when no free block is large enough.
//
// Every scan walks blocks in address order and only replaces its candidate
// on a strictly better block, so ties always go to the lowest address.
func (l *ledger) search(s Strategy, n int64) int {
	switch s {
	case FirstFit:
		return l.firstFit(n)
	case BestFit:
		return l.bestFit(n)
	case WorstFit:
		return l.worstFit(n)
	default:
		return -1
	}
}

func (l *ledger) firstFit(n int64) int {
	for i, b := range l.blocks {
		if !b.Allocated && b.Size >= n {
			return i
		}
	}
	return -1
}

// bestFit picks the smallest sufficient block. An exact fit cannot be beaten,
// so the scan stops there.
func (l *ledger) bestFit(n int64) int {
	best := -1
	for i, b := range l.blocks {
		if b.Allocated || b.Size < n {
			continue
		}
		if best < 0 || b.Size < l.blocks[best].Size {
			best = i
			if b.Size == n {
				break
			}
		}
	}
	return best
}

func (l *ledger) worstFit(n int64) int {
	worst := -1
	for i, b := range l.blocks {
		if b.Allocated || b.Size < n {
			continue
		}
		if worst < 0 || b.Size > l.blocks[worst].Size {
			worst = i
		}
	}
	return worst
}

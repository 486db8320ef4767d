package ingest

// blockWindow is an inclusive block range fetched in one RPC call.
type blockWindow struct {
	From uint64
	To   uint64
}

// windows cuts [from, to] into sub-windows of at most size blocks, preserving
// order so events come back in block sequence. An inverted range or zero size
// yields nothing.
func windows(from, to, size uint64) []blockWindow {
	if to < from || size == 0 {
		return nil
	}

	out := make([]blockWindow, 0, (to-from)/size+1)
	start := from
	for start <= to {
		end := start + size - 1
		if end > to || end < start { // second clause guards uint64 wrap
			end = to
		}
		out = append(out, blockWindow{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}
	return out
}

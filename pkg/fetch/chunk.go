package fetch

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize over total items and stops at the first error.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// ClampChunkSize bounds a configured chunk size to [1, MaxChunkSize].
func ClampChunkSize(size int) int {
	if size < 1 {
		return 1
	}
	return min(size, MaxChunkSize)
}

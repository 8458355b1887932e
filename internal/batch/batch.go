// Package batch splits work into provider- and store-sized slices.
package batch

// Chunk splits items into consecutive slices of at most size elements.
// A non-positive size yields a single chunk.
func Chunk[T any](items []T, size int) [][]T {
    if size <= 0 { size = len(items) }
    var out [][]T
    for start := 0; start < len(items); start += size {
        out = append(out, items[start:min(start+size, len(items))])
    }
    return out
}

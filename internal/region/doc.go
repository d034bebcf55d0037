// Package region obtains backing memory for allocator arenas.
//
// The allocator never allocates its own arena; callers such as arenactl use
// Map to get one. On unix systems the memory is an anonymous private mapping
// so arena pages live outside the Go heap and are returned to the OS on
// release. Elsewhere it falls back to a heap slice.
package region

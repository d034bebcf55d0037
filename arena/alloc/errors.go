package alloc

import "errors"

var (
	// ErrInvalidArena indicates Init was given an empty or overflowing arena.
	ErrInvalidArena = errors.New("alloc: invalid arena")

	// ErrNotInitialized indicates an operation before Init or, for Allocate, after Destroy.
	ErrNotInitialized = errors.New("alloc: allocator not initialized")

	// ErrOutOfMemory indicates that no free block large enough was found.
	ErrOutOfMemory = errors.New("alloc: no free block large enough")

	// ErrInvalidPointer indicates an address that is not the start of any block.
	ErrInvalidPointer = errors.New("alloc: address is not a block start")

	// ErrDoubleFree indicates an attempt to free a block that is already free.
	ErrDoubleFree = errors.New("alloc: block already free")

	// ErrUseAfterDestroy indicates a Free after the allocator was destroyed.
	ErrUseAfterDestroy = errors.New("alloc: free after destroy")

	// ErrInvalidSize indicates a non-positive allocation request.
	ErrInvalidSize = errors.New("alloc: size must be positive")

	// ErrUnknownStrategy indicates a Strategy value outside FirstFit, BestFit, WorstFit.
	ErrUnknownStrategy = errors.New("alloc: unknown placement strategy")
)

// Package memory adapts wazero linear memory and a guest's malloc/free
// exports for the engine table.
//
//	mem := memory.WrapMemory(guest.Memory())
//	alloc := memory.WrapAllocator(ctx, guest.ExportedFunction("malloc"), guest.ExportedFunction("free"))
//
// Reads returned by Read alias guest memory and are invalidated by the next
// memory growth; use Copy to keep bytes.
//
// This package is internal to the engine and should not be used directly.
package memory

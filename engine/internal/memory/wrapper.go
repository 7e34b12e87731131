package memory

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// WrapMemory wraps a wazero api.Memory.
func WrapMemory(mem api.Memory) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// WrapAllocator wraps a guest's malloc and free exports. free may be nil.
func WrapAllocator(ctx context.Context, malloc, free api.Function) *Allocator {
	if malloc == nil {
		return nil
	}
	return &Allocator{Ctx: ctx, Malloc: malloc, Free: free}
}

// Wrapper adds bounds-checked, error-returning accessors to api.Memory.
type Wrapper struct {
	Mem api.Memory
}

// Read returns a view of length bytes at offset.
func (m *Wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

// Copy reads length bytes at offset into a fresh slice.
func (m *Wrapper) Copy(offset uint32, length uint32) ([]byte, error) {
	data, err := m.Read(offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// ReadString reads a length-delimited UTF-8 string.
func (m *Wrapper) ReadString(offset uint32, length uint32) (string, error) {
	data, err := m.Read(offset, length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write writes bytes to memory.
func (m *Wrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Wrapper) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.Mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

// ReadF64 reads a little-endian float64.
func (m *Wrapper) ReadF64(offset uint32) (float64, error) {
	v, ok := m.Mem.ReadFloat64Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Wrapper) WriteU64(offset uint32, value uint64) error {
	if !m.Mem.WriteUint64Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// WriteF64 writes a little-endian float64.
func (m *Wrapper) WriteF64(offset uint32, value float64) error {
	if !m.Mem.WriteFloat64Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// Allocator calls the guest's malloc(size) -> ptr and free(ptr).
type Allocator struct {
	Ctx    context.Context
	Malloc api.Function
	Free   api.Function
}

// Alloc allocates size bytes in guest memory.
func (a *Allocator) Alloc(size uint32) (uint32, error) {
	results, err := a.Malloc.Call(a.Ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	ptr := api.DecodeU32(results[0])
	if ptr == 0 && size > 0 {
		return 0, fmt.Errorf("allocation of %d bytes returned null", size)
	}
	return ptr, nil
}

// Release frees a pointer returned by Alloc. Null pointers are ignored.
func (a *Allocator) Release(ptr uint32) error {
	if a.Free == nil || ptr == 0 {
		return nil
	}
	if _, err := a.Free.Call(a.Ctx, uint64(ptr)); err != nil {
		return fmt.Errorf("free failed: %w", err)
	}
	return nil
}

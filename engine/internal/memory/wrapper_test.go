package memory

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

func instantiate(t *testing.T) (context.Context, api.Module) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	return ctx, mod
}

func TestWrapMemory_Nil(t *testing.T) {
	if mem := WrapMemory(nil); mem != nil {
		t.Error("expected nil for nil memory")
	}
}

func TestWrapAllocator_Nil(t *testing.T) {
	if alloc := WrapAllocator(context.Background(), nil, nil); alloc != nil {
		t.Error("expected nil for nil malloc")
	}
}

func TestWrapper_ReadWrite(t *testing.T) {
	_, mod := instantiate(t)
	mem := WrapMemory(mod.ExportedMemory("memory"))

	data := []byte{1, 2, 3, 4}
	if err := mem.Write(0, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	view, err := mem.Read(0, 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	copied, err := mem.Copy(0, 4)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	for i := range data {
		if view[i] != data[i] || copied[i] != data[i] {
			t.Errorf("byte %d: expected %d, got %d/%d", i, data[i], view[i], copied[i])
		}
	}

	// views alias guest memory, copies do not
	if err := mem.Write(0, []byte{9}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if view[0] != 9 {
		t.Errorf("expected view to observe the write, got %d", view[0])
	}
	if copied[0] != 1 {
		t.Errorf("expected copy to be detached, got %d", copied[0])
	}
}

func TestWrapper_ReadString(t *testing.T) {
	_, mod := instantiate(t)
	mem := WrapMemory(mod.ExportedMemory("memory"))

	if err := mem.Write(100, []byte("héllo")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	s, err := mem.ReadString(100, uint32(len("héllo")))
	if err != nil || s != "héllo" {
		t.Fatalf("expected héllo, got %q, %v", s, err)
	}
}

func TestWrapper_OutOfBounds(t *testing.T) {
	_, mod := instantiate(t)
	mem := WrapMemory(mod.ExportedMemory("memory"))

	if _, err := mem.Read(65536, 1); err == nil {
		t.Error("expected error for out of bounds read")
	}
	if err := mem.Write(65536, []byte{1}); err == nil {
		t.Error("expected error for out of bounds write")
	}
	if _, err := mem.ReadU32(65534); err == nil {
		t.Error("expected error for straddling ReadU32")
	}
	if err := mem.WriteF64(65530, 1); err == nil {
		t.Error("expected error for straddling WriteF64")
	}
}

func TestWrapper_IntegerReadWrite(t *testing.T) {
	_, mod := instantiate(t)
	mem := WrapMemory(mod.ExportedMemory("memory"))

	if err := mem.WriteU32(0, 0x12345678); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	v32, err := mem.ReadU32(0)
	if err != nil {
		t.Fatalf("ReadU32 failed: %v", err)
	}
	if v32 != 0x12345678 {
		t.Errorf("ReadU32: expected 0x12345678, got 0x%x", v32)
	}

	if err := mem.WriteU64(8, 0x123456789ABCDEF0); err != nil {
		t.Fatalf("WriteU64 failed: %v", err)
	}
	v64, err := mem.ReadU64(8)
	if err != nil {
		t.Fatalf("ReadU64 failed: %v", err)
	}
	if v64 != 0x123456789ABCDEF0 {
		t.Errorf("ReadU64: expected 0x123456789ABCDEF0, got 0x%x", v64)
	}

	if err := mem.WriteF64(16, -2.5); err != nil {
		t.Fatalf("WriteF64 failed: %v", err)
	}
	f, err := mem.ReadF64(16)
	if err != nil {
		t.Fatalf("ReadF64 failed: %v", err)
	}
	if f != -2.5 {
		t.Errorf("ReadF64: expected -2.5, got %v", f)
	}
}

func TestAllocator(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	next := uint32(64)
	var freed []uint32
	mod, err := rt.NewHostModuleBuilder("alloc").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, size uint32) uint32 {
			p := next
			next += size
			return p
		}).
		Export("malloc").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, ptr uint32) {
			freed = append(freed, ptr)
		}).
		Export("free").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}

	alloc := WrapAllocator(ctx, mod.ExportedFunction("malloc"), mod.ExportedFunction("free"))
	a, err := alloc.Alloc(16)
	if err != nil || a != 64 {
		t.Fatalf("expected 64, got %d, %v", a, err)
	}
	b, _ := alloc.Alloc(8)
	if b != 80 {
		t.Fatalf("expected 80, got %d", b)
	}

	if err := alloc.Release(0); err != nil {
		t.Fatalf("Release(0) failed: %v", err)
	}
	if err := alloc.Release(a); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if len(freed) != 1 || freed[0] != a {
		t.Fatalf("expected only %d freed, got %v", a, freed)
	}
}

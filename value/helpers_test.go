package value

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/finalizer"
	"github.com/wippyai/jsbind/host"
	"github.com/wippyai/jsbind/host/memhost"
)

func newEnv(t *testing.T, opts memhost.Options) (*memhost.Engine, host.Env) {
	t.Helper()
	e := memhost.New(opts)
	env := e.NewEnv()
	t.Cleanup(func() { _ = e.CloseAll() })
	return e, env
}

// isolateRegistry swaps in a fresh finalizer registry for the test.
func isolateRegistry(t *testing.T) *finalizer.Registry {
	t.Helper()
	prev := Registry()
	reg := finalizer.NewRegistry()
	SetRegistry(reg)
	t.Cleanup(func() { SetRegistry(prev) })
	return reg
}

func asError(t *testing.T, err error) *errors.Error {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("Expected *errors.Error, got %T: %v", err, err)
	}
	return e
}

// countingTable records calls to GetArrayLength.
type countingTable struct {
	host.Table
	lengthCalls int
}

func (c *countingTable) GetArrayLength(env host.Env, h host.Handle) (uint32, host.Status) {
	c.lengthCalls++
	return c.Table.GetArrayLength(env, h)
}

// recordingTable captures finalizers instead of handing them to the engine,
// or fails AddFinalizer when fail is set.
type recordingTable struct {
	host.Table
	fin        host.Finalize
	data, hint uintptr
	fail       bool
}

func (r *recordingTable) AddFinalizer(env host.Env, obj host.Handle, data uintptr, fin host.Finalize, hint uintptr) host.Status {
	if r.fail {
		return host.GenericFailure
	}
	r.fin, r.data, r.hint = fin, data, hint
	return host.OK
}

type counter struct {
	n int
}

func (c *counter) Release() error {
	c.n++
	return nil
}

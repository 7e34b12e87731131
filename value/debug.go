//go:build jsbind_debug

package value

import (
	"fmt"

	"github.com/wippyai/jsbind/host"
)

// assertOwned panics when a table that can tell reports that h does not
// belong to env. Only built with the jsbind_debug tag.
func assertOwned(tab host.Table, env host.Env, h host.Handle) {
	oc, ok := tab.(host.OwnershipChecker)
	if !ok || h == 0 {
		return
	}
	if !oc.OwnsHandle(env, h) {
		panic(fmt.Sprintf("jsbind: handle %#x used outside env %#x", uintptr(h), uintptr(env)))
	}
}

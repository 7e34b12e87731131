// Package host declares the raw native-value interface of a script engine.
//
// A [Table] is a C-style function table: every operation takes an [Env]
// and opaque [Handle] values and reports a [Status]. Nothing in this
// package checks kinds; that is the job of the value package layered on
// top.
//
// Two implementations live in this module:
//
//	host/memhost   in-process reference engine
//	engine         engine compiled to WebAssembly, driven through wazero
//
// # Threading
//
// A Table is used from the goroutine that owns the Env. Handles must not
// cross Envs or outlive them.
package host

// Package jsbind is a typed layer over the raw value table of an embedded
// JavaScript engine.
//
// Engines embedded through a napi-like interface hand out opaque handles
// and report every outcome as a status code. jsbind gives those handles a
// static kind, turns statuses into structured errors and keeps native
// closures alive exactly as long as the engine object that uses them.
//
// # Architecture Overview
//
//	jsbind/
//	├── host/            The raw table contract: handles, statuses, descriptors
//	│   └── memhost/     In-process engine implementing the table
//	├── engine/          Table backed by an engine compiled to WebAssembly (wazero)
//	├── value/           Typed wrappers, validation, Go <-> engine conversion
//	├── finalizer/       Closure sets released when the engine collects an object
//	├── errors/          Structured error types for debugging
//	└── cmd/inspect/     Browse a JSON document through the typed layer
//
// # Quick Start
//
// Against the in-process engine:
//
//	eng := memhost.New(memhost.Options{})
//	env := eng.NewEnv()
//	defer eng.CloseAll()
//
//	h, err := value.Encode(eng, env, map[string]any{"port": 8080})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	raw, _ := value.NewRaw(eng, env, h)
//	obj, err := value.As[value.Object](raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var port int
//	if err := obj.GetNamed("port", &port); err != nil {
//	    log.Fatal(err) // Object property 'port' type mismatch ...
//	}
//
// Against an engine compiled to WebAssembly:
//
//	tab, err := engine.Load(ctx, wasmBytes, &engine.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tab.Close()
//
// # Error Handling
//
// Errors are *errors.Error values carrying the phase (validate, decode,
// encode, host), the kind (type_mismatch, pending_exception, ...), the
// property path and the engine status that caused them.
package jsbind

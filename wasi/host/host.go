// Package host wires a SQLHost into a wazero runtime as the "env" host
// module the guest glue imports. Payloads move through guest memory via the
// guest-exported alloc_bytes allocator.
package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	sqlhost "github.com/SquattingSocrates/wasmlite/sqlbridge/host"
)

// Instantiate registers the env.sql_host_call host function on the runtime.
// Must run before the guest module is instantiated.
func Instantiate(ctx context.Context, r wazero.Runtime, sqlHost *sqlhost.SQLHost) error {
	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().WithFunc(makeSQLHostCall(sqlHost)).Export("sql_host_call").
		Instantiate(ctx)
	return err
}

// makeSQLHostCall adapts SQLHost.HandleRequest to the WASM calling
// convention: the request is read from guest memory, the response is written
// into a guest-allocated buffer whose handle lands at destHandlePtr, and the
// return value is the payload length (negated for a transport-level error).
func makeSQLHostCall(sqlHost *sqlhost.SQLHost) func(ctx context.Context, m api.Module, reqOffset, reqLen, destHandlePtr uint32) int32 {
	return func(ctx context.Context, m api.Module, reqOffset, reqLen, destHandlePtr uint32) int32 {
		request, err := readBytes(m, reqOffset, reqLen)
		if err == nil {
			var response []byte
			response, err = sqlHost.HandleRequest(request)
			if err == nil {
				handle, werr := writeBytes(ctx, m, response)
				if werr != nil {
					err = werr
				} else {
					m.Memory().WriteUint32Le(destHandlePtr, handle)
					return int32(len(response))
				}
			}
		}

		msg := []byte(err.Error())
		if handle, werr := writeBytes(ctx, m, msg); werr == nil {
			m.Memory().WriteUint32Le(destHandlePtr, handle)
		}
		return -int32(len(msg))
	}
}

func readBytes(m api.Module, offset, byteCount uint32) ([]byte, error) {
	view, ok := m.Memory().Read(offset, byteCount)
	if !ok {
		return nil, fmt.Errorf("memory read (%d, %d) out of range", offset, byteCount)
	}
	// The view aliases guest memory and is invalidated by the next guest
	// call; copy before handing it on.
	buf := make([]byte, len(view))
	copy(buf, view)
	return buf, nil
}

// writeBytes allocates a buffer inside the guest via its exported allocator,
// fills it, and returns the buffer handle.
func writeBytes(ctx context.Context, m api.Module, data []byte) (uint32, error) {
	alloc := m.ExportedFunction("alloc_bytes")
	if alloc == nil {
		return 0, fmt.Errorf("guest does not export alloc_bytes")
	}
	results, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("alloc_bytes failed: %w", err)
	}
	handle := uint32(results[0] >> 32)
	ptr := uint32(results[0])
	if !m.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("memory write of %d bytes at %d failed", len(data), ptr)
	}
	return handle, nil
}

//go:build wasip1

// Package guest contains the WASM-side glue: the host-call import the SQL
// driver rides on, and the byte-handle exports the host uses to place
// response payloads in guest memory.
package guest

import (
	"fmt"
	"unsafe"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/driver"
)

//go:wasmimport env sql_host_call
func sql_host_call(reqPtr, reqLen, destHandlePtr uint32) int32

func bytesPtr(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	return uint32(uintptr(unsafe.Pointer(&b[0])))
}

func addrOf(p *uint32) uint32 {
	return uint32(uintptr(unsafe.Pointer(p)))
}

// InitBridge installs the host-call handler on the SQL driver. Must run
// before the guest opens its first database connection; guest applications
// normally call it from an init function or their _initialize path.
func InitBridge() {
	InitBytes()
	driver.SetHostHandler(func(payload []byte) ([]byte, error) {
		var destHandle uint32
		n := sql_host_call(bytesPtr(payload), uint32(len(payload)), addrOf(&destHandle))
		data := TakeBytes(destHandle)
		if n < 0 {
			return nil, fmt.Errorf("sql_host_call returned error: %s", string(data))
		}
		return data, nil
	})
}

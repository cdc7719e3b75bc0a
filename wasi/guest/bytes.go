//go:build wasip1

package guest

import "unsafe"

// Response payloads travel through guest-allocated buffers addressed by
// opaque handles: the host calls alloc_bytes, writes the payload at the
// returned pointer, and hands the handle back so the guest can claim the
// bytes without any unsafe reads of its own linear memory.

var byteHandles map[uint32][]byte
var nextByteHandle uint32

func InitBytes() {
	byteHandles = make(map[uint32][]byte)
	nextByteHandle = 1
}

//go:wasmexport alloc_bytes
func AllocBytes(size uint32) uint64 {
	buf := make([]byte, size)
	handle := nextByteHandle
	byteHandles[handle] = buf
	nextByteHandle++
	var ptr uint64
	if size > 0 {
		ptr = uint64(uintptr(unsafe.Pointer(&buf[0])))
	}
	return uint64(handle)<<32 | ptr
}

//go:wasmexport free_bytes
func FreeBytes(handle uint32) {
	delete(byteHandles, handle)
}

// TakeBytes claims a host-filled buffer and releases its handle.
func TakeBytes(handle uint32) []byte {
	buf := byteHandles[handle]
	delete(byteHandles, handle)
	return buf
}

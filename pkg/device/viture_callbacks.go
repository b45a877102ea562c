//go:build viture && cgo

package device

/*
#include <stdint.h>
*/
import "C"

import "unsafe"

//export vituredIMUCallback
func vituredIMUCallback(data *C.uint8_t, length C.uint16_t, ts C.uint32_t) {
	callbackMu.RLock()
	fn := imuTarget
	callbackMu.RUnlock()
	if fn == nil || data == nil {
		return
	}
	fn(C.GoBytes(unsafe.Pointer(data), C.int(length)), uint32(ts))
}

//export vituredMCUCallback
func vituredMCUCallback(msgID C.uint16_t, data *C.uint8_t, length C.uint16_t, ts C.uint32_t) {
	callbackMu.RLock()
	fn := mcuTarget
	callbackMu.RUnlock()
	if fn == nil {
		return
	}
	var payload []byte
	if data != nil && length > 0 {
		payload = C.GoBytes(unsafe.Pointer(data), C.int(length))
	}
	fn(uint16(msgID), payload, uint32(ts))
}

//go:build !cgo

package device

import "errors"

func NewHIDEnumerator() (Enumerator, error) {
	return nil, errors.New("hid enumeration requires cgo")
}

//go:build cgo

package device

import (
	"sync"

	"github.com/sstallion/go-hid"
)

var (
	hidInitOnce sync.Once
	hidInitErr  error
)

type hidEnumerator struct{}

// NewHIDEnumerator lists attached devices through hidapi.
func NewHIDEnumerator() (Enumerator, error) {
	hidInitOnce.Do(func() {
		hidInitErr = hid.Init()
	})
	if hidInitErr != nil {
		return nil, hidInitErr
	}
	return hidEnumerator{}, nil
}

func (hidEnumerator) Enumerate(vendorID uint16) ([]uint16, error) {
	seen := map[uint16]struct{}{}
	var ids []uint16
	err := hid.Enumerate(vendorID, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		if _, ok := seen[info.ProductID]; !ok {
			seen[info.ProductID] = struct{}{}
			ids = append(ids, info.ProductID)
		}
		return nil
	})
	return ids, err
}

//go:build !viture || !cgo

package device

// NewVitureSDK reports ErrSDKUnavailable; build with -tags viture and cgo
// enabled to link libviture_one_sdk.
func NewVitureSDK() (SDK, error) {
	return nil, ErrSDKUnavailable
}

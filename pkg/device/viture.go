//go:build viture && cgo

package device

/*
#cgo LDFLAGS: -lviture_one_sdk
#include <stdbool.h>
#include <stdint.h>

typedef void (*viture_imu_cb)(uint8_t *data, uint16_t len, uint32_t ts);
typedef void (*viture_mcu_cb)(uint16_t msgid, uint8_t *data, uint16_t len, uint32_t ts);

bool init(viture_imu_cb imu, viture_mcu_cb mcu);
void deinit(void);
int set_imu(bool on);
int get_imu_state(void);
int set_3d(bool on);
int get_3d_state(void);
int set_imu_fq(int fq);
int get_imu_fq(void);

extern void vituredIMUCallback(uint8_t *data, uint16_t len, uint32_t ts);
extern void vituredMCUCallback(uint16_t msgid, uint8_t *data, uint16_t len, uint32_t ts);

static bool viture_init(void) { return init(vituredIMUCallback, vituredMCUCallback); }
static void viture_deinit(void) { deinit(); }
static int viture_set_imu(bool on) { return set_imu(on); }
static int viture_get_imu_state(void) { return get_imu_state(); }
static int viture_set_3d(bool on) { return set_3d(on); }
static int viture_get_3d_state(void) { return get_3d_state(); }
static int viture_set_imu_fq(int fq) { return set_imu_fq(fq); }
static int viture_get_imu_fq(void) { return get_imu_fq(); }
*/
import "C"

import "sync"

// The vendor library keeps a single global device handle, so the callback
// targets are process-wide as well.
var (
	callbackMu sync.RWMutex
	imuTarget  IMUHandler
	mcuTarget  MCUHandler
)

type vitureSDK struct{}

// NewVitureSDK returns the binding to libviture_one_sdk.
func NewVitureSDK() (SDK, error) {
	return vitureSDK{}, nil
}

// Init routes the library callbacks to imu and mcu. A failed init leaves no
// handlers registered.
func (vitureSDK) Init(imu IMUHandler, mcu MCUHandler) bool {
	setTargets(imu, mcu)
	ok := bool(C.viture_init())
	if !ok {
		setTargets(nil, nil)
	}
	return ok
}

func (vitureSDK) Deinit() {
	C.viture_deinit()
	setTargets(nil, nil)
}

func setTargets(imu IMUHandler, mcu MCUHandler) {
	callbackMu.Lock()
	imuTarget = imu
	mcuTarget = mcu
	callbackMu.Unlock()
}

func (vitureSDK) SetIMU(on bool) Result {
	return Result(C.viture_set_imu(C.bool(on)))
}

func (vitureSDK) IMUState() State {
	return State(C.viture_get_imu_state())
}

func (vitureSDK) Set3D(on bool) Result {
	return Result(C.viture_set_3d(C.bool(on)))
}

func (vitureSDK) State3D() State {
	return State(C.viture_get_3d_state())
}

func (vitureSDK) SetIMUFrequency(f Frequency) Result {
	return Result(C.viture_set_imu_fq(C.int(f)))
}

func (vitureSDK) IMUFrequency() Frequency {
	return Frequency(C.viture_get_imu_fq())
}

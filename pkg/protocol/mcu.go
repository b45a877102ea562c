package protocol

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// MCUMessage preserves auxiliary MCU payloads; the contents are opaque.
type MCUMessage struct {
	ID        uint16
	Timestamp uint32
	Payload   []byte
}

func NewMCUMessage(id uint16, data []byte, ts uint32) MCUMessage {
	return MCUMessage{ID: id, Timestamp: ts, Payload: append([]byte(nil), data...)}
}

func (m MCUMessage) Len() int {
	return len(m.Payload)
}

func (m MCUMessage) MarshalJSON() ([]byte, error) {
	type mcuMessageJSON struct {
		ID         string `json:"id"`
		Len        int    `json:"len"`
		Timestamp  uint32 `json:"ts"`
		PayloadHex string `json:"payload_hex"`
	}
	return json.Marshal(mcuMessageJSON{
		ID:         FormatID(m.ID),
		Len:        m.Len(),
		Timestamp:  m.Timestamp,
		PayloadHex: hex.EncodeToString(m.Payload),
	})
}

// FormatID renders a message id the way the logs print it.
func FormatID(id uint16) string {
	return fmt.Sprintf("0x%04x", id)
}

package logger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"vitured/pkg/protocol"
)

type JSONLWriter struct {
	enc *json.Encoder
}

type jsonRecord struct {
	TS         string `json:"ts"`
	Kind       string `json:"kind"`
	ID         string `json:"id,omitempty"`
	DeviceTS   uint32 `json:"device_ts"`
	PayloadHex string `json:"payload_hex"`
	Data       any    `json:"data,omitempty"`
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

func (j *JSONLWriter) Consume(ctx context.Context, in <-chan protocol.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}
			_ = j.Write(pkt)
		}
	}
}

func (j *JSONLWriter) Write(pkt protocol.Packet) error {
	rec := jsonRecord{
		TS:         pkt.Timestamp.UTC().Format(time.RFC3339Nano),
		Kind:       pkt.Kind.String(),
		DeviceTS:   pkt.DeviceTS,
		PayloadHex: hex.EncodeToString(pkt.Payload),
		Data:       pkt.Data,
	}
	if pkt.Kind == protocol.KindMCU {
		rec.ID = protocol.FormatID(pkt.ID)
	}
	return j.enc.Encode(rec)
}

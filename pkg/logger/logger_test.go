package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitured/pkg/logger"
	"vitured/pkg/protocol"
)

func imuPacket() protocol.Packet {
	sample := protocol.IMUSample{
		Euler:      protocol.Euler{Roll: 1, Pitch: 2, Yaw: 3},
		Quaternion: &protocol.Quaternion{W: 1},
	}
	return protocol.Packet{
		Kind:      protocol.KindIMU,
		Timestamp: time.Date(2026, 10, 19, 16, 0, 0, 0, time.UTC),
		DeviceTS:  42,
		Payload:   protocol.EncodeIMU(sample),
		Data:      sample,
	}
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := logger.NewJSONLWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan protocol.Packet, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		writer.Consume(ctx, ch)
	}()

	ch <- imuPacket()
	ch <- protocol.Packet{
		Kind:    protocol.KindMCU,
		ID:      0x0301,
		Payload: []byte("hi"),
		Data:    protocol.NewMCUMessage(0x0301, []byte("hi"), 7),
	}
	close(ch)
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "imu", rec["kind"])
	assert.Equal(t, float64(42), rec["device_ts"])
	assert.NotContains(t, rec, "id")
	data := rec["data"].(map[string]any)
	euler := data["euler"].(map[string]any)
	assert.Equal(t, float64(3), euler["yaw"])

	tsValue, ok := rec["ts"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339Nano, tsValue)
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "mcu", rec["kind"])
	assert.Equal(t, "0x0301", rec["id"])
	assert.Equal(t, "6869", rec["payload_hex"])
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := logger.NewTextWriter(&buf)
	w.Write(imuPacket())
	w.Write(protocol.Packet{Kind: protocol.KindMCU, ID: 1, Payload: []byte{1, 2, 3}, DeviceTS: 9})

	assert.Equal(t,
		"imu data roll 1.000000 pitch 2.000000 yaw 3.000000\n"+
			"imu data w 1.000000 x 0.000000 y 0.000000 z 0.000000\n"+
			"mcu id 0x0001 len 3 ts 9\n",
		buf.String())
}

func TestSetup(t *testing.T) {
	defer log.SetOutput(io.Discard)

	var buf bytes.Buffer
	require.NoError(t, logger.Setup(&buf, "debug", "json"))
	log.WithField("k", "v").Debug("hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])

	require.Error(t, logger.Setup(&buf, "loud", "text"))
	require.Error(t, logger.Setup(&buf, "info", "xml"))
}

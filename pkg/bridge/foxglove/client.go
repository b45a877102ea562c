package foxglove

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// client is one Foxglove Studio connection and its subscriptions.
type client struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once

	mu   sync.RWMutex
	subs map[uint32]uint64 // subscription id -> channel id
}

func newClient(conn *websocket.Conn, queue int) *client {
	return &client{
		conn: conn,
		out:  make(chan []byte, queue),
		done: make(chan struct{}),
		subs: make(map[uint32]uint64),
	}
}

// serve handles control messages until the connection drops.
func (c *client) serve(channels map[uint64]struct{}) {
	go c.pump()
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.TextMessage {
			c.handleControl(data, channels)
		}
	}
}

func (c *client) handleControl(data []byte, channels map[uint64]struct{}) {
	var head struct {
		Op string `json:"op"`
	}
	if json.Unmarshal(data, &head) != nil {
		return
	}

	switch head.Op {
	case OpSubscribe:
		var msg SubscribeMsg
		if json.Unmarshal(data, &msg) != nil {
			return
		}
		c.mu.Lock()
		for _, sub := range msg.Subscriptions {
			if _, ok := channels[sub.ChannelID]; ok {
				c.subs[sub.ID] = sub.ChannelID
			}
		}
		c.mu.Unlock()
	case OpUnsubscribe:
		var msg UnsubscribeMsg
		if json.Unmarshal(data, &msg) != nil {
			return
		}
		c.mu.Lock()
		for _, id := range msg.SubscriptionIDs {
			delete(c.subs, id)
		}
		c.mu.Unlock()
	}
}

func (c *client) pump() {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.out:
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				c.close()
				return
			}
		}
	}
}

// deliver queues payload once per subscription on channelID. Frames for a
// client whose queue is full are dropped.
func (c *client) deliver(channelID uint64, logTime uint64, payload []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for subID, ch := range c.subs {
		if ch != channelID {
			continue
		}
		select {
		case <-c.done:
			return
		case c.out <- EncodeMessageData(subID, logTime, payload):
		default:
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

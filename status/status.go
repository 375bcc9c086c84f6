package status

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	WARNING
	ERROR
)

const HISTORY_SIZE = 32

type Message struct {
	Message string
	Time    time.Time
	Type    int
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump drains the connection so close frames are noticed.
func (c *client) readPump() {
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			break
		}
	}
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
	close(c.send)
}

// NewClient subscribes conn to status messages. The last message is sent
// right away.
func NewClient(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	globalLock.Lock()
	broadcastList[c] = true
	if lastMessage != nil {
		c.send <- lastMessage
	}
	globalLock.Unlock()

	go c.writePump()
	go c.readPump()
}

var statusBroadcast chan *Message
var broadcastList map[*client]bool
var globalLock sync.Mutex
var lastMessage []byte = nil
var history []Message

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
}

func init() {
	statusBroadcast = make(chan *Message, 16)
	broadcastList = make(map[*client]bool)
	go func() {
		for s := range statusBroadcast {
			data, err := json.Marshal(s)
			if err != nil {
				panic(err)
			}
			globalLock.Lock()
			lastMessage = data
			for c := range broadcastList {
				select {
				case c.send <- data:
				default:
					log.Printf("[status] dropping message for slow client")
				}
			}
			globalLock.Unlock()
		}
	}()
}

func Status(msg string, _type int) {
	s := &Message{
		Message: msg,
		Time:    time.Now(),
		Type:    _type,
	}

	globalLock.Lock()
	history = append(history, *s)
	if len(history) > HISTORY_SIZE {
		history = history[len(history)-HISTORY_SIZE:]
	}
	globalLock.Unlock()

	statusBroadcast <- s
}

// History returns up to HISTORY_SIZE most recent messages, oldest first.
func History() []Message {
	globalLock.Lock()
	defer globalLock.Unlock()
	result := make([]Message, len(history))
	copy(result, history)
	return result
}

func Info(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), INFO)
}

func Warning(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	log.Printf("[status] warning: %s", msg)
	Status(msg, WARNING)
}

func Error(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	log.Printf("[status] error: %s", msg)
	Status(msg, ERROR)
}

package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"github.com/mogaika/bvh_skinning/scene"
	"github.com/mogaika/bvh_skinning/status"
	"github.com/mogaika/bvh_skinning/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// jsonFrame is one message of the /ws/frames stream.
type jsonFrame struct {
	Frame      int
	Revision   uint64
	Transforms []mgl32.Mat4
	Joints     [][3]float32
	Vertices   [][3]float32
}

type frameClient struct {
	conn *websocket.Conn
	send chan []byte
}

var (
	frameClients      = make(map[*frameClient]bool)
	frameLock         sync.Mutex
	lastFrameRevision uint64
)

func (c *frameClient) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[web] ws frame write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[web] ws frame ping error: %v", err)
				return
			}
		}
	}
}

func (c *frameClient) readPump() {
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			break
		}
	}
	frameLock.Lock()
	defer frameLock.Unlock()
	delete(frameClients, c)
	close(c.send)
}

func marshalFrame(s *scene.Scene) (uint64, []byte, error) {
	jf := &jsonFrame{
		Frame:      s.Frame(),
		Revision:   s.Revision(),
		Transforms: utils.Mat4sTo32(s.JointWorldTransforms()),
		Joints:     utils.Vec3sTo32(s.SkeletonVertices()),
		Vertices:   utils.Vec3sTo32(s.DeformedMeshVertices()),
	}
	data, err := json.Marshal(jf)
	return jf.Revision, data, err
}

// broadcastFrame sends the current frame to stream listeners unless they
// already got this revision.
func broadcastFrame() {
	frameLock.Lock()
	listeners := len(frameClients)
	frameLock.Unlock()
	if listeners == 0 {
		return
	}

	var revision uint64
	var data []byte
	var err error
	withScene(func(s *scene.Scene) {
		revision, data, err = marshalFrame(s)
	})
	if err != nil {
		log.Printf("[web] Failed to marshal frame: %v", err)
		return
	}

	frameLock.Lock()
	defer frameLock.Unlock()
	if revision == lastFrameRevision {
		return
	}
	lastFrameRevision = revision
	for c := range frameClients {
		select {
		case c.send <- data:
		default:
			log.Printf("[web] dropping frame %d for slow client", revision)
		}
	}
}

func HandlerWsFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}

	var data []byte
	withScene(func(s *scene.Scene) {
		_, data, err = marshalFrame(s)
	})

	c := &frameClient{conn: conn, send: make(chan []byte, 8)}
	if err == nil {
		c.send <- data
	}
	frameLock.Lock()
	frameClients[c] = true
	frameLock.Unlock()

	go c.writePump()
	go c.readPump()
}

func HandlerWsStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	status.NewClient(conn)
}

package web

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/bvh_skinning/config"
	"github.com/mogaika/bvh_skinning/scene"
)

var (
	ServerScene *scene.Scene
	// sceneLock guards ServerScene, the scene itself never locks
	sceneLock sync.Mutex
)

func withScene(fn func(s *scene.Scene)) {
	sceneLock.Lock()
	defer sceneLock.Unlock()
	fn(ServerScene)
}

func NewRouter(s *scene.Scene) http.Handler {
	ServerScene = s

	r := mux.NewRouter()
	r.HandleFunc("/json/scene", HandlerJsonScene).Methods("GET")
	r.HandleFunc("/json/skeleton/transforms", HandlerJsonSkeletonTransforms).Methods("GET")
	r.HandleFunc("/json/skeleton/vertices", HandlerJsonSkeletonVertices).Methods("GET")
	r.HandleFunc("/json/skeleton/indices", HandlerJsonSkeletonIndices).Methods("GET")
	r.HandleFunc("/json/mesh/vertices", HandlerJsonMeshVertices).Methods("GET")
	r.HandleFunc("/json/mesh/indices", HandlerJsonMeshIndices).Methods("GET")
	r.HandleFunc("/json/mesh/weights/{joint}", HandlerJsonMeshWeights).Methods("GET")
	r.HandleFunc("/action/advance/{dt}", HandlerActionAdvance).Methods("POST")
	r.HandleFunc("/action/seek/{frame}", HandlerActionSeek).Methods("POST")
	r.HandleFunc("/action/pause/{paused}", HandlerActionPause).Methods("POST")
	r.HandleFunc("/action/mode/{mode}", HandlerActionMode).Methods("POST")
	r.HandleFunc("/action/load/{kind}", HandlerActionLoad).Methods("POST")
	r.HandleFunc("/export/glb", HandlerExportGlb).Methods("GET")
	r.HandleFunc("/export/obj", HandlerExportObj).Methods("GET")
	r.HandleFunc("/export/fbx", HandlerExportFbx).Methods("GET")
	r.HandleFunc("/ws/frames", HandlerWsFrames)
	r.HandleFunc("/ws/status", HandlerWsStatus)

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	h = handlers.LoggingHandler(os.Stdout, h)
	return h
}

// RunTicker advances the scene tickRate times per second until ctx is
// done and pushes every new frame to the frame stream.
func RunTicker(ctx context.Context, tickRate int) {
	if tickRate <= 0 {
		return
	}
	if tickRate > config.MAX_TICK_RATE {
		tickRate = config.MAX_TICK_RATE
	}
	period := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			withScene(func(s *scene.Scene) {
				if s.Skeleton() == nil {
					return
				}
				if _, err := s.AdvanceFrame(dt); err != nil {
					log.Printf("[web] Ticker advance error: %v", err)
				}
			})
			broadcastFrame()
		}
	}
}

func StartServer(addr string, s *scene.Scene, tickRate int) error {
	h := NewRouter(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunTicker(ctx, tickRate)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"TianHe-LiveSim/config"
	"TianHe-LiveSim/handler"
	"TianHe-LiveSim/metrics"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/room"
	"TianHe-LiveSim/utils"

	"github.com/gorilla/websocket"
)

type Options struct {
	Addr         string
	PingInterval time.Duration
	WriteWait    time.Duration
	SendQueue    int
}

func OptionsFromConfig(cfg config.ServerConfig) Options {
	return Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		PingInterval: cfg.PingInterval,
		WriteWait:    cfg.WriteWait,
		SendQueue:    cfg.SendQueue,
	}
}

// Server 本地预览服务，向渲染端推送房间事件
type Server struct {
	opts     Options
	manager  *room.Manager
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	hubs  map[string]*Hub
	mutex sync.RWMutex
}

func New(manager *room.Manager, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = 100
	}

	s := &Server{
		opts:    opts,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// 仅供本地渲染端使用
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux:  http.NewServeMux(),
		hubs: make(map[string]*Hub),
	}
	manager.OnMount(s.attach)
	manager.OnUnmount(s.detach)
	for _, roomID := range manager.Rooms() {
		if r, err := manager.Get(roomID); err == nil {
			s.attach(r)
		}
	}

	s.mux.HandleFunc("/ws", s.serveWS)
	s.mux.HandleFunc("/rooms", s.serveRooms)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.mux.Handle("/metrics", metrics.Handler())
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) attach(r *room.Room) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	id := r.Identity().ID
	if _, exists := s.hubs[id]; exists {
		return
	}
	s.hubs[id] = newHub(r)
}

func (s *Server) detach(r *room.Room) {
	s.mutex.Lock()
	hub, exists := s.hubs[r.Identity().ID]
	if exists && hub.room == r {
		delete(s.hubs, r.Identity().ID)
	}
	s.mutex.Unlock()

	if exists && hub.room == r {
		hub.close()
	}
}

// hub 未指定房间且只有一个房间时使用该房间
func (s *Server) hub(roomID string) (*Hub, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if roomID == "" && len(s.hubs) == 1 {
		for _, h := range s.hubs {
			return h, nil
		}
	}
	h, exists := s.hubs[roomID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrRoomNotFound, roomID)
	}
	return h, nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	hub, err := s.hub(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger.Warnf("预览连接升级失败: %v", err)
		return
	}

	client := newClient(conn, hub, handler.NewDispatcher(hub.room.Identity().ID, hub.room), s.opts)
	if err := hub.add(client); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()),
			time.Now().Add(s.opts.WriteWait))
		conn.Close()
		return
	}

	utils.Logger.Infof("房间 %s 预览连接建立: %s", hub.room.Identity().ID, conn.RemoteAddr())
	client.serve(context.WithoutCancel(r.Context()))
	utils.Logger.Infof("房间 %s 预览连接断开: %s", hub.room.Identity().ID, conn.RemoteAddr())
}

func (s *Server) serveRooms(w http.ResponseWriter, r *http.Request) {
	snapshots := make([]room.Snapshot, 0)
	for _, roomID := range s.manager.Rooms() {
		if rm, err := s.manager.Get(roomID); err == nil {
			snapshots = append(snapshots, rm.Snapshot())
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		utils.Logger.Warnf("输出房间列表失败: %v", err)
	}
}

// ListenAndServe 阻塞直到 ctx 取消或服务出错
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.Infof("预览服务监听 %s", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	utils.Logger.Info("预览服务已关闭")
	return nil
}

func (s *Server) closeAll() {
	s.mutex.Lock()
	hubs := s.hubs
	s.hubs = make(map[string]*Hub)
	s.mutex.Unlock()

	for _, h := range hubs {
		h.close()
	}
}

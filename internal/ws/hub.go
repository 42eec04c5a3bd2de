package ws

import (
	"sync"
	"sync/atomic"
)

// Hub 按活动码管理各自的广播组，实现延迟创建与并发安全。
// 组成员关系只存在于进程内存，进程重启后靠客户端重新加入重建。
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*RoomHub
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*RoomHub)} }

// GetRoom 若活动的广播组未初始化则懒加载一个 RoomHub。
func (h *Hub) GetRoom(code string) *RoomHub {
	h.mu.RLock()
	room := h.rooms[code]
	h.mu.RUnlock()
	if room != nil {
		return room
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	room = h.rooms[code]
	if room != nil {
		return room
	}
	room = NewRoomHub(code)
	h.rooms[code] = room
	go room.run()
	return room
}

func (h *Hub) Online(code string) int {
	h.mu.RLock()
	room := h.rooms[code]
	h.mu.RUnlock()
	if room == nil {
		return 0
	}
	return room.Online()
}

// RoomHub 是单个活动的广播组。成员变更与广播都经由 channel
// 进入 run 循环串行处理，反馈按被接受的顺序送达所有订阅者。
type RoomHub struct {
	code       string
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	online     int32
}

func NewRoomHub(code string) *RoomHub {
	return &RoomHub{
		code:       code,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

func (rh *RoomHub) run() {
	for {
		select {
		case c := <-rh.register:
			rh.clients[c] = true
			atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
		case c := <-rh.unregister:
			if _, ok := rh.clients[c]; ok {
				delete(rh.clients, c)
				atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
			}
		case msg := <-rh.broadcast:
			for c := range rh.clients {
				select {
				case c.send <- msg:
				default:
					// 消费太慢的连接直接踢出广播组。send 通道归
					// readPump 所有，这里不能 close。
					delete(rh.clients, c)
					atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
				}
			}
		}
	}
}

// Online 返回广播组内的连接数量。
func (rh *RoomHub) Online() int { return int(atomic.LoadInt32(&rh.online)) }

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-in-iframe/game"
	"github.com/hoshinonyaruko/snake-in-iframe/notify"
)

const writeWait = 5 * time.Second

// 游戏在 iframe 中运行，宿主页面可能来自任何来源
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inbound is a message from the host page.
type inbound struct {
	Action string   `json:"action,omitempty"` // "start" or "restart"
	Key    string   `json:"key,omitempty"`
	Keys   []string `json:"keys,omitempty"`
}

// WebsocketHandler carries notifications out and button or key events in
// over one connection. Clients reconnecting add ?resume=1.
func WebsocketHandler(loop *game.Loop, hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			glog.Warningf("websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		// ?resume=1 表示断线重连，不再重放 ready
		sub := hub.Subscribe(c.Query("resume") == "")
		defer sub.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		go func() {
			defer cancel()
			for {
				var in inbound
				if err := conn.ReadJSON(&in); err != nil {
					if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						glog.V(1).Infof("websocket read: %v", err)
					}
					return
				}
				if err := dispatch(ctx, loop, in); err != nil {
					glog.Warningf("websocket %s: %v", sub.ID, err)
					if errors.Is(err, game.ErrStopped) {
						return
					}
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Messages:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					glog.V(1).Infof("websocket write: %v", err)
					return
				}
			}
		}
	}
}

func dispatch(ctx context.Context, loop *game.Loop, in inbound) error {
	switch {
	case in.Action == "start":
		return loop.Start(ctx)
	case in.Action == "restart":
		return loop.Restart(ctx)
	case len(in.Keys) > 0:
		return loop.Chord(ctx, in.Keys)
	case in.Key != "":
		return loop.Input(ctx, in.Key)
	}
	return nil
}

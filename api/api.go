package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-in-iframe/game"
	"github.com/hoshinonyaruko/snake-in-iframe/notify"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// FrameSource is the rendered board.
type FrameSource interface {
	EncodePNG(w io.Writer, width int) error
	ScoreText() string
}

// History lists rounds finished in this process.
type History interface {
	Rounds(limit int) ([]structs.Round, error)
	BestScore() (int, error)
}

// Server bundles what the handlers need.
type Server struct {
	Loop    *game.Loop
	Hub     *notify.Hub
	Frames  FrameSource
	History History
}

// Routes registers every endpoint on router.
func (s *Server) Routes(router *gin.Engine) {
	// 开始 / 重新开始按钮
	router.Any("/start", StartHandler(s.Loop))
	router.Any("/restart", RestartHandler(s.Loop))
	// 方向键与屏幕方向按钮
	router.GET("/input", InputHandler(s.Loop))
	router.GET("/state", StateHandler(s.Loop, s.Frames))
	router.GET("/frame.png", FrameHandler(s.Frames))
	router.GET("/history", HistoryHandler(s.History))
	// 通知宿主页面
	router.GET("/events", EventsHandler(s.Hub))
	router.GET("/ws", WebsocketHandler(s.Loop, s.Hub))
}

func loopError(c *gin.Context, err error) {
	if errors.Is(err, game.ErrStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Game loop is not running"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func StartHandler(loop *game.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := loop.Start(c.Request.Context()); err != nil {
			loopError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game started"})
	}
}

func RestartHandler(loop *game.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := loop.Restart(c.Request.Context()); err != nil {
			loopError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game restarted"})
	}
}

// InputHandler accepts ?key=ArrowUp for a single key, or ?keys=ArrowUp,ArrowLeft
// for two keys pressed together.
func InputHandler(loop *game.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("key")
		keys := c.Query("keys")

		// 验证是否提供了必要的查询参数
		if key == "" && keys == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: key or keys"})
			return
		}

		if keys != "" {
			err := loop.Chord(c.Request.Context(), strings.Split(keys, ","))
			if errors.Is(err, game.ErrUTurnDisabled) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			if err != nil {
				loopError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Keys queued"})
			return
		}

		if err := loop.Input(c.Request.Context(), key); err != nil {
			loopError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Key queued"})
	}
}

func StateHandler(loop *game.Loop, frames FrameSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := loop.Snapshot(c.Request.Context())
		if err != nil {
			loopError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": st, "score_text": frames.ScoreText()})
	}
}

// FrameHandler 返回最新一帧，?width= 可缩放
func FrameHandler(frames FrameSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		width, err := strconv.Atoi(c.DefaultQuery("width", "0"))
		if err != nil || width < 0 || width > 4096 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid width"})
			return
		}
		var buf bytes.Buffer
		if err := frames.EncodePNG(&buf, width); err != nil {
			glog.Errorf("render frame: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render frame"})
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

func HistoryHandler(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if limit <= 0 {
			limit = 20
		}
		rounds, err := history.Rounds(limit)
		if err != nil {
			glog.Errorf("history: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load history"})
			return
		}
		best, err := history.BestScore()
		if err != nil {
			glog.Errorf("best score: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load history"})
			return
		}
		if rounds == nil {
			rounds = []structs.Round{}
		}
		c.JSON(http.StatusOK, gin.H{"rounds": rounds, "best": best})
	}
}

// EventsHandler streams notifications to the host page as server-sent events.
// Every event carries an id, so a browser reconnecting sends Last-Event-ID
// and is not shown the ready notification a second time.
func EventsHandler(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := hub.Subscribe(c.GetHeader("Last-Event-ID") == "")
		defer sub.Close()

		seq := 0
		c.Stream(func(w io.Writer) bool {
			select {
			case msg, ok := <-sub.Messages:
				if !ok {
					return false
				}
				seq++
				c.Render(-1, sse.Event{
					Id:    strconv.Itoa(seq),
					Event: msg.Kind(),
					Data:  msg,
				})
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

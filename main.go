package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-in-iframe/api"
	"github.com/hoshinonyaruko/snake-in-iframe/config"
	"github.com/hoshinonyaruko/snake-in-iframe/game"
	"github.com/hoshinonyaruko/snake-in-iframe/notify"
	"github.com/hoshinonyaruko/snake-in-iframe/render"
	"github.com/hoshinonyaruko/snake-in-iframe/snake"
	"github.com/hoshinonyaruko/snake-in-iframe/sqlite"
	"github.com/hoshinonyaruko/snake-in-iframe/term"
)

// shutdownTimeout bounds how long open connections, event streams included,
// get to finish after a signal.
const shutdownTimeout = 5 * time.Second

var (
	configPath = flag.String("config", "./config.json", "path of the JSON config file")
	termMode   = flag.Bool("term", false, "play in the terminal instead of serving HTTP")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	EnsureFoldersExist()
	// Initialize the configuration
	cfg := config.LoadConfig(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal, err := sqlite.OpenJournal()
	if err != nil {
		glog.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	hub := notify.NewHub()
	go logNotifications(hub)

	if *termMode {
		if err := runTerminal(ctx, cfg, hub, journal); err != nil {
			glog.Fatalf("terminal: %v", err)
		}
		return
	}

	canvas := render.NewCanvas(cfg.Gridsize, cfg.Blocksize)
	engine := game.NewEngine(game.Options{
		Settings: settingsFrom(cfg),
		Renderer: canvas,
		Notifier: hub,
		Journal:  journal,
	})
	loop := game.NewLoop(engine)
	go loop.Run(ctx)
	go watchConfig(ctx, loop)

	router := gin.Default()
	srv := &api.Server{Loop: loop, Hub: hub, Frames: canvas, History: journal}
	srv.Routes(router)
	router.Static("/static", "./static") // 宿主页面与 iframe 静态文件
	// 从配置单例读取端口 监听
	httpSrv := &http.Server{
		Addr:    ":" + config.GetConfigValue("port").(string),
		Handler: router,

		// 请求上下文随信号取消，/events 和 /ws 的长连接才能退出
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	if err := serve(ctx, httpSrv); err != nil {
		glog.Errorf("http server: %v", err)
	}
}

// serve runs httpSrv until it fails or ctx is cancelled, then shuts it down.
func serve(ctx context.Context, httpSrv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	glog.Infof("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runTerminal(ctx context.Context, cfg *config.AppConfig, hub *notify.Hub, journal *sqlite.Journal) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	settings := settingsFrom(cfg)
	engine := game.NewEngine(game.Options{
		Settings: settings,
		Renderer: term.NewScreen(s, settings.Grid),
		Notifier: hub,
		Journal:  journal,
	})
	loop := game.NewLoop(engine)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go loop.Run(ctx)
	go watchConfig(ctx, loop)
	return term.ReadKeys(ctx, s, loop)
}

func settingsFrom(cfg *config.AppConfig) game.Settings {
	s := game.DefaultSettings()
	s.Grid = snake.Grid{Size: cfg.Gridsize, Box: cfg.Blocksize}
	s.Speed = speedFrom(cfg)
	s.UTurn = cfg.EnableUTurn
	return s
}

func speedFrom(cfg *config.AppConfig) snake.SpeedCurve {
	return snake.SpeedCurve{
		Max:             cfg.SpeedMax,
		Min:             cfg.SpeedMin,
		Decrement:       cfg.SpeedDecrement,
		RandomThreshold: cfg.SpeedRandomThreshold,
	}
}

// watchConfig 配置文件热更新，速度曲线在下一局生效
func watchConfig(ctx context.Context, loop *game.Loop) {
	err := config.Watch(*configPath, ctx.Done(), func(cfg *config.AppConfig) {
		curve := speedFrom(cfg)
		if err := loop.Do(ctx, func(e *game.Engine) { e.Configure(curve, cfg.EnableUTurn) }); err != nil {
			glog.Warningf("apply config: %v", err)
		}
	})
	if err != nil {
		glog.Warningf("config watch stopped: %v", err)
	}
}

func logNotifications(hub *notify.Hub) {
	sub := hub.Subscribe(false)
	for msg := range sub.Messages {
		glog.V(1).Infof("notify %s: %+v", msg.Kind(), msg)
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist() {
	folders := []string{"static"}

	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			err := os.Mkdir(folder, 0755) // 使用0755权限以确保读写权限
			if err != nil {
				// 如果创建失败，则记录错误并可能退出程序
				glog.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			glog.Infof("Created %s directory", folder)
		}
	}
}

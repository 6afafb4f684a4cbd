package api

import (
	"bufio"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-in-iframe/game"
	"github.com/hoshinonyaruko/snake-in-iframe/notify"
	"github.com/hoshinonyaruko/snake-in-iframe/render"
	"github.com/hoshinonyaruko/snake-in-iframe/sqlite"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// manualClock ticks only when the test sends on ch.
type manualClock struct {
	ch   chan time.Time
	live bool
}

func (c *manualClock) Start(time.Duration)      { c.live = true }
func (c *manualClock) Stop()                    { c.live = false }
func (c *manualClock) Reschedule(time.Duration) { c.live = true }
func (c *manualClock) C() <-chan time.Time {
	if !c.live {
		return nil
	}
	return c.ch
}

type testServer struct {
	*Server
	router *gin.Engine
	clock  *manualClock
	cancel context.CancelFunc
}

func newTestServer(t *testing.T, mutate func(*game.Settings)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	settings := game.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	journal, err := sqlite.OpenJournal()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { journal.Close() })

	hub := notify.NewHub()
	canvas := render.NewCanvas(settings.Grid.Size, settings.Grid.Box)
	clock := &manualClock{ch: make(chan time.Time)}
	engine := game.NewEngine(game.Options{
		Settings: settings,
		Clock:    clock,
		Renderer: canvas,
		Notifier: hub,
		Journal:  journal,
		Seed:     1,
	})
	loop := game.NewLoop(engine)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := &Server{Loop: loop, Hub: hub, Frames: canvas, History: journal}
	router := gin.New()
	srv.Routes(router)
	return &testServer{Server: srv, router: router, clock: clock, cancel: cancel}
}

func (ts *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) state(t *testing.T) structs.GameState {
	t.Helper()
	w := ts.do(t, http.MethodGet, "/state")
	if w.Code != http.StatusOK {
		t.Fatalf("/state = %d %s", w.Code, w.Body.String())
	}
	var body struct {
		State     structs.GameState `json:"state"`
		ScoreText string            `json:"score_text"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	return body.State
}

func TestStartInputAndTick(t *testing.T) {
	ts := newTestServer(t, nil)

	if w := ts.do(t, http.MethodPost, "/start"); w.Code != http.StatusOK {
		t.Fatalf("/start = %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/input?key=ArrowDown"); w.Code != http.StatusOK {
		t.Fatalf("/input = %d", w.Code)
	}
	st := ts.state(t)
	if st.Phase != structs.PhaseRunning || st.Direction != structs.Down || len(st.MoveQueue) != 1 {
		t.Fatalf("state after input = %+v", st)
	}

	ts.clock.ch <- time.Now()
	st = ts.state(t)
	if st.Ticks != 1 || st.Snake[0] != (structs.Position{X: 100, Y: 120}) {
		t.Fatalf("state after tick = %+v", st)
	}
}

func TestInputValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	if w := ts.do(t, http.MethodGet, "/input"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing key = %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/input?keys=ArrowUp,ArrowLeft"); w.Code != http.StatusConflict {
		t.Fatalf("chord with u-turn disabled = %d", w.Code)
	}

	ts = newTestServer(t, func(s *game.Settings) { s.UTurn = true })
	if w := ts.do(t, http.MethodGet, "/input?keys=ArrowUp,ArrowLeft"); w.Code != http.StatusOK {
		t.Fatalf("chord with u-turn enabled = %d", w.Code)
	}
	st := ts.state(t)
	if len(st.MoveQueue) != 2 || st.MoveQueue[0] != structs.Up || st.MoveQueue[1] != structs.Left {
		t.Fatalf("queue = %v", st.MoveQueue)
	}
}

func TestFrameHandler(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, http.MethodGet, "/frame.png?width=120")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("/frame.png = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 120 {
		t.Fatalf("frame width %d", img.Bounds().Dx())
	}
	if w := ts.do(t, http.MethodGet, "/frame.png?width=abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad width = %d", w.Code)
	}
}

func TestGameOverRecordedInHistory(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/start")
	// steer up until the head leaves the board
	ts.do(t, http.MethodGet, "/input?key=ArrowUp")
	for i := 0; i < 6; i++ {
		ts.clock.ch <- time.Now()
	}
	st := ts.state(t)
	if st.Phase != structs.PhaseGameOver {
		t.Fatalf("phase = %s, snake %+v", st.Phase, st.Snake)
	}

	w := ts.do(t, http.MethodGet, "/history")
	var body struct {
		Rounds []structs.Round `json:"rounds"`
		Best   int             `json:"best"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range body.Rounds {
		if r.RoundID == st.RoundID {
			found = true
		}
	}
	if !found {
		t.Fatalf("round %s not in history %+v", st.RoundID, body.Rounds)
	}

	if w := ts.do(t, http.MethodPost, "/restart"); w.Code != http.StatusOK {
		t.Fatalf("/restart = %d", w.Code)
	}
	if st := ts.state(t); st.Phase != structs.PhaseRunning || st.Score != 0 || len(st.Snake) != 1 {
		t.Fatalf("after restart %+v", st)
	}
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t, nil)
	httpSrv := httptest.NewServer(ts.router)
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	go func() {
		for ts.Hub.Len() == 0 {
			time.Sleep(10 * time.Millisecond)
		}
		ts.do(t, http.MethodPost, "/start")
	}()

	scanner := bufio.NewScanner(resp.Body)
	var events []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			events = append(events, strings.TrimSpace(strings.TrimPrefix(line, "event:")))
		}
		if strings.HasPrefix(line, "data:") && strings.Contains(line, `"gameStart":true`) {
			break
		}
	}
	if len(events) < 2 || events[0] != "ready" || events[len(events)-1] != "start" {
		t.Fatalf("events = %v", events)
	}
}

func TestEventsReconnectSkipsReady(t *testing.T) {
	ts := newTestServer(t, nil)
	httpSrv := httptest.NewServer(ts.router)
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/events", nil)
	req.Header.Set("Last-Event-ID", "3")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	go func() {
		for ts.Hub.Len() == 0 {
			time.Sleep(10 * time.Millisecond)
		}
		ts.do(t, http.MethodPost, "/start")
	}()

	scanner := bufio.NewScanner(resp.Body)
	var events, ids []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "id:") {
			ids = append(ids, strings.TrimSpace(strings.TrimPrefix(line, "id:")))
		}
		if strings.HasPrefix(line, "event:") {
			events = append(events, strings.TrimSpace(strings.TrimPrefix(line, "event:")))
		}
		if strings.HasPrefix(line, "data:") && strings.Contains(line, `"gameStart":true`) {
			break
		}
	}
	if len(events) == 0 || events[0] != "start" {
		t.Fatalf("reconnected stream events = %v", events)
	}
	if len(ids) != len(events) || ids[0] != "1" {
		t.Fatalf("ids = %v for events %v", ids, events)
	}
}

func TestWebsocket(t *testing.T) {
	ts := newTestServer(t, nil)
	httpSrv := httptest.NewServer(ts.router)
	defer httpSrv.Close()

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg structs.Message
	if err := conn.ReadJSON(&msg); err != nil || !msg.GameReady {
		t.Fatalf("first message %+v err %v", msg, err)
	}

	if err := conn.WriteJSON(inbound{Action: "start"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&msg); err != nil || !msg.GameStart || !msg.GameMessage {
		t.Fatalf("start message %+v err %v", msg, err)
	}

	if err := conn.WriteJSON(inbound{Key: "ArrowUp"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ts.state(t).Direction == structs.Up {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("websocket key never reached the engine")
}

func TestWebsocketResumeSkipsReady(t *testing.T) {
	ts := newTestServer(t, nil)
	httpSrv := httptest.NewServer(ts.router)
	defer httpSrv.Close()

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws?resume=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(inbound{Action: "start"}); err != nil {
		t.Fatal(err)
	}
	var msg structs.Message
	if err := conn.ReadJSON(&msg); err != nil || !msg.GameStart {
		t.Fatalf("first message after resume %+v err %v", msg, err)
	}
}

// Package term plays the game in a terminal. Each board cell is two
// terminal columns wide so the board looks roughly square.
package term

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-in-iframe/game"
	"github.com/hoshinonyaruko/snake-in-iframe/snake"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

var (
	headStyle   = tcell.StyleDefault.Background(tcell.GetColor("#f04a64"))
	bodyStyle   = tcell.StyleDefault.Background(tcell.GetColor("#ffaf3d"))
	foodStyle   = tcell.StyleDefault.Foreground(tcell.GetColor("#39e75f"))
	borderStyle = tcell.StyleDefault.Foreground(tcell.GetColor("#8b949e"))
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// Screen renders the board onto a tcell screen.
type Screen struct {
	s        tcell.Screen
	grid     snake.Grid
	score    int
	start    bool
	gameOver bool
}

func NewScreen(s tcell.Screen, grid snake.Grid) *Screen {
	return &Screen{s: s, grid: grid}
}

// cell converts a pixel position to the terminal coordinates of its left
// half, leaving one row and column for the border.
func (t *Screen) cell(p structs.Position) (int, int) {
	return 1 + 2*(p.X/t.grid.Box), 1 + p.Y/t.grid.Box
}

func (t *Screen) Clear() {
	t.s.Clear()
	n := t.grid.Size
	for x := 0; x <= 2*n+1; x++ {
		t.s.SetContent(x, 0, '─', nil, borderStyle)
		t.s.SetContent(x, n+1, '─', nil, borderStyle)
	}
	for y := 0; y <= n+1; y++ {
		t.s.SetContent(0, y, '│', nil, borderStyle)
		t.s.SetContent(2*n+1, y, '│', nil, borderStyle)
	}
}

func (t *Screen) DrawFood(p structs.Position) {
	x, y := t.cell(p)
	t.s.SetContent(x, y, '●', nil, foodStyle)
}

func (t *Screen) DrawSnake(body []structs.Position) {
	for i, seg := range body {
		if !t.grid.Contains(seg) {
			continue
		}
		style := bodyStyle
		if i == 0 {
			style = headStyle
		}
		x, y := t.cell(seg)
		t.s.SetContent(x, y, ' ', nil, style)
		t.s.SetContent(x+1, y, ' ', nil, style)
	}
}

func (t *Screen) SetScore(score int)        { t.score = score }
func (t *Screen) ShowStart(visible bool)    { t.start = visible }
func (t *Screen) ShowGameOver(visible bool) { t.gameOver = visible }

func (t *Screen) Present() {
	row := t.grid.Size + 2
	t.text(0, row, fmt.Sprintf("Score: %d", t.score))
	switch {
	case t.gameOver:
		t.text(0, row+1, "Game Over - r to restart, q to quit")
	case t.start:
		t.text(0, row+1, "s to start, arrows to steer, q to quit")
	default:
		t.text(0, row+1, "                                      ")
	}
	t.s.Show()
}

func (t *Screen) text(x, y int, s string) {
	for _, r := range s {
		t.s.SetContent(x, y, r, nil, textStyle)
		x++
	}
}

var arrowKeys = map[tcell.Key]string{
	tcell.KeyUp:    "ArrowUp",
	tcell.KeyDown:  "ArrowDown",
	tcell.KeyLeft:  "ArrowLeft",
	tcell.KeyRight: "ArrowRight",
}

// ReadKeys forwards terminal key presses to the loop until the user quits or
// ctx is cancelled.
func ReadKeys(ctx context.Context, s tcell.Screen, loop *game.Loop) error {
	for {
		ev := s.PollEvent()
		if ev == nil {
			return nil
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		var err error
		switch {
		case key.Key() == tcell.KeyCtrlC || key.Key() == tcell.KeyEscape || key.Rune() == 'q':
			return nil
		case key.Rune() == 's':
			err = loop.Start(ctx)
		case key.Rune() == 'r':
			err = loop.Restart(ctx)
		default:
			if name, ok := arrowKeys[key.Key()]; ok {
				err = loop.Input(ctx, name)
			} else {
				err = loop.Input(ctx, string(key.Rune()))
			}
		}
		if err != nil {
			glog.Warningf("terminal input: %v", err)
			return err
		}
	}
}

// 画布渲染：在内存中绘制每一帧，供 /frame.png 读取
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

const (
	HeadColor   = "#f04a64"
	BodyColor   = "#ffaf3d"
	BorderColor = "#161b22"
	FoodColor   = "#39e75f"
)

// Canvas is a fixed-size square raster that the engine draws into. Drawing
// calls come from the game loop goroutine; Frame and EncodePNG may be called
// from anywhere.
type Canvas struct {
	dc   *gg.Context
	box  int
	side int

	mu       sync.RWMutex
	score    int
	start    bool
	gameOver bool
	frame    image.Image
}

// NewCanvas 创建边长为 gridSize*box 像素的画布
func NewCanvas(gridSize, box int) *Canvas {
	side := gridSize * box
	c := &Canvas{
		dc:   gg.NewContext(side, side),
		box:  box,
		side: side,
	}
	c.frame = image.NewNRGBA(image.Rect(0, 0, side, side))
	return c
}

// Clear wipes the drawing surface to transparent.
func (c *Canvas) Clear() {
	c.dc.SetRGBA(0, 0, 0, 0)
	c.dc.Clear()
}

// DrawFood 绘制内切于格子的圆形食物
func (c *Canvas) DrawFood(p structs.Position) {
	b := float64(c.box)
	c.dc.SetHexColor(FoodColor)
	c.dc.DrawCircle(float64(p.X)+b/2, float64(p.Y)+b/2, b/2.5)
	c.dc.Fill()
}

// DrawSnake 绘制蛇身，蛇头颜色不同，每节都有边框
func (c *Canvas) DrawSnake(body []structs.Position) {
	b := float64(c.box)
	for i, seg := range body {
		if i == 0 {
			c.dc.SetHexColor(HeadColor)
		} else {
			c.dc.SetHexColor(BodyColor)
		}
		c.dc.DrawRectangle(float64(seg.X), float64(seg.Y), b, b)
		c.dc.Fill()
		c.dc.SetHexColor(BorderColor)
		c.dc.SetLineWidth(1)
		c.dc.DrawRectangle(float64(seg.X), float64(seg.Y), b, b)
		c.dc.Stroke()
	}
}

func (c *Canvas) SetScore(score int) {
	c.mu.Lock()
	c.score = score
	c.mu.Unlock()
}

// ScoreText is the text of the score display.
func (c *Canvas) ScoreText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("Score: %d", c.score)
}

func (c *Canvas) ShowStart(visible bool) {
	c.mu.Lock()
	c.start = visible
	c.mu.Unlock()
}

func (c *Canvas) ShowGameOver(visible bool) {
	c.mu.Lock()
	c.gameOver = visible
	c.mu.Unlock()
}

// Present snapshots the drawing surface as the current frame. While a prompt
// is visible the board is blurred behind it.
func (c *Canvas) Present() {
	c.mu.RLock()
	start, over, score := c.start, c.gameOver, c.score
	c.mu.RUnlock()

	var frame image.Image = imaging.Clone(c.dc.Image())
	switch {
	case over:
		frame = c.prompt(frame, "Game Over", fmt.Sprintf("Score: %d", score))
	case start:
		frame = c.prompt(frame, "Snake", "Press Start")
	}

	c.mu.Lock()
	c.frame = frame
	c.mu.Unlock()
}

func (c *Canvas) prompt(board image.Image, title, subtitle string) image.Image {
	dc := gg.NewContextForImage(imaging.Blur(board, 3.5))
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawRectangle(0, 0, float64(c.side), float64(c.side))
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	mid := float64(c.side) / 2
	dc.DrawStringAnchored(title, mid, mid-10, 0.5, 0.5)
	dc.DrawStringAnchored(subtitle, mid, mid+10, 0.5, 0.5)
	return dc.Image()
}

// Frame returns the last presented frame.
func (c *Canvas) Frame() image.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

// EncodePNG writes the last presented frame. A width greater than zero
// rescales it to width x width.
func (c *Canvas) EncodePNG(w io.Writer, width int) error {
	img := c.Frame()
	if width > 0 && width != c.side {
		img = imaging.Resize(img, width, width, imaging.NearestNeighbor)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

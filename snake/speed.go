package snake

// SpeedCurve 速度曲线，单位毫秒
type SpeedCurve struct {
	Max       int // 初始间隔（最慢）
	Min       int // 最快
	Decrement int // 每个食物减少的间隔

	// RandomThreshold is the score from which the interval is pinned to Min.
	// Despite the name nothing is randomised.
	RandomThreshold int
}

// DefaultSpeedCurve 默认速度曲线
var DefaultSpeedCurve = SpeedCurve{Max: 100, Min: 50, Decrement: 5, RandomThreshold: 200}

// NextInterval returns the tick interval to use after food is eaten at score.
func NextInterval(score, current int, c SpeedCurve) int {
	if score >= c.RandomThreshold {
		return c.Min
	}
	return max(current-c.Decrement, c.Min)
}

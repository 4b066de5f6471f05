package donuts

import (
	"time"
)

// Time tracks the frame clock. Dt is the duration of the previous frame.
type Time struct {
	Start time.Time
	Time  time.Time
	Dt    time.Duration
}

// Seconds returns Dt in seconds.
func (t *Time) Seconds() float32 {
	return float32(t.Dt.Seconds())
}

// Elapsed returns the time since the clock was created.
func (t *Time) Elapsed() time.Duration {
	return t.Time.Sub(t.Start)
}

type TimeModule struct{}

func (TimeModule) Install(app *App, cmd *Commands) {
	now := time.Now()
	cmd.AddResources(&Time{Start: now, Time: now})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(t *Time) {
	now := time.Now()
	t.Dt = now.Sub(t.Time)
	t.Time = now
}

package game

import (
	"survivor/internal/game/spatial"
)

// Recorder is an Animator, Effects and Presenter that counts what it is
// asked to do and keeps the current status text. The engine uses it as the
// headless presentation layer.
type Recorder struct {
	triggers  map[string]int
	bools     map[string]bool
	cues      map[Cue]int
	playing   map[Cue]bool
	status    string
	countdown int

	OnCue func(cue Cue, at spatial.Vec3)
}

func NewRecorder() *Recorder {
	return &Recorder{
		triggers: make(map[string]int),
		bools:    make(map[string]bool),
		cues:     make(map[Cue]int),
		playing:  make(map[Cue]bool),
	}
}

func (r *Recorder) Trigger(name string)         { r.triggers[name]++ }
func (r *Recorder) SetBool(name string, v bool) { r.bools[name] = v }

func (r *Recorder) Play(cue Cue, at spatial.Vec3) {
	r.cues[cue]++
	r.playing[cue] = true
	if r.OnCue != nil {
		r.OnCue(cue, at)
	}
}

func (r *Recorder) Stop(cue Cue) { r.playing[cue] = false }

func (r *Recorder) ShowStatus(msg string) { r.status = msg }
func (r *Recorder) HideStatus()           { r.status = "" }
func (r *Recorder) Countdown(n int)       { r.countdown = n }

// Triggers returns how often name fired.
func (r *Recorder) Triggers(name string) int { return r.triggers[name] }

// Bool returns the last value set for name.
func (r *Recorder) Bool(name string) bool { return r.bools[name] }

// Cues returns how often cue played.
func (r *Recorder) Cues(cue Cue) int { return r.cues[cue] }

// Playing reports whether cue was played and not stopped since.
func (r *Recorder) Playing(cue Cue) bool { return r.playing[cue] }

// Status returns the visible status text, empty when hidden.
func (r *Recorder) Status() string { return r.status }

// LastCountdown returns the last countdown mark shown.
func (r *Recorder) LastCountdown() int { return r.countdown }

// CueCounts returns cue totals keyed by name.
func (r *Recorder) CueCounts() map[string]int {
	out := make(map[string]int, len(r.cues))
	for c, n := range r.cues {
		out[c.String()] = n
	}
	return out
}

// TriggerCounts returns a copy of the trigger totals.
func (r *Recorder) TriggerCounts() map[string]int {
	out := make(map[string]int, len(r.triggers))
	for k, v := range r.triggers {
		out[k] = v
	}
	return out
}

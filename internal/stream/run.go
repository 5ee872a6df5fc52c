package stream

import (
	"context"
	"time"

	"lightning/internal/core"
	"lightning/internal/sim"
)

// NewFrameMsg converts a frame for observers.
func NewFrameMsg(fr sim.Frame, grown []core.Coord) FrameMsg {
	return FrameMsg{
		Type:      TypeFrame,
		Tick:      fr.Tick,
		Dims:      [3]int{fr.Dims.W, fr.Dims.H, fr.Dims.Depth()},
		Potential: fr.Potential,
		States:    fr.States,
		Grown:     grown,
		Landed:    fr.Landed,
		Reason:    fr.Reason,
	}
}

// Run ticks s at tps ticks per second, publishing a frame after every tick
// and a DoneMsg at the end. It returns when the run stops or ctx is done.
func Run(ctx context.Context, s *sim.Simulation, hub *Hub, tps int) (sim.Outcome, error) {
	fs := core.NewFixedStep(tps)
	_ = hub.Publish(NewFrameMsg(s.Snapshot(), nil))
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return s.Outcome(), err
		}
		if !fs.ShouldStep() {
			select {
			case <-ctx.Done():
				return s.Outcome(), ctx.Err()
			case <-time.After(fs.Remaining()):
			}
			continue
		}
		res, err := s.Tick()
		if err != nil {
			_ = hub.Publish(DoneMsg{Type: TypeDone, Outcome: s.Outcome()})
			return s.Outcome(), err
		}
		if err := hub.Publish(NewFrameMsg(s.Snapshot(), res.Growth.NewlyConductive)); err != nil {
			return s.Outcome(), err
		}
	}
	out := s.Outcome()
	return out, hub.Publish(DoneMsg{Type: TypeDone, Outcome: out})
}

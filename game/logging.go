package game

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// WorldState summarizes the live population for logs and the HUD.
type WorldState struct {
	Orbs         int
	Targets      int
	BestFitness  float32
	MeanFitness  float32
	Consumed     int
	WallContacts int
}

// WorldState scans the current orbs and targets.
func (g *Game) WorldState() WorldState {
	ws := WorldState{Orbs: len(g.orbs), Targets: g.TargetCount()}
	if len(g.orbs) == 0 {
		return ws
	}

	var sum float32
	for i, e := range g.orbs {
		_, _, _, _, _, orb, _ := g.orbMapper.Get(e)
		sum += orb.Fitness
		if i == 0 || orb.Fitness > ws.BestFitness {
			ws.BestFitness = orb.Fitness
		}
		ws.Consumed += int(orb.Consumed)
		if orb.WallContact {
			ws.WallContacts++
		}
	}
	ws.MeanFitness = sum / float32(len(g.orbs))
	return ws
}

// LogWorldState logs a one-line summary of the running generation.
func (g *Game) LogWorldState() {
	ws := g.WorldState()
	slog.Info("world",
		"tick", g.tick,
		"generation", g.generation,
		"gen_tick", g.genTick,
		"gen_len", g.genLen,
		"orbs", ws.Orbs,
		"targets", ws.Targets,
		"best", ws.BestFitness,
		"mean", ws.MeanFitness,
		"consumed", ws.Consumed,
		"at_wall", ws.WallContacts,
	)
}

// LogSummary logs totals for the whole run.
func (g *Game) LogSummary(elapsed time.Duration) {
	ticksPerSec := 0.0
	if elapsed > 0 {
		ticksPerSec = float64(g.tick) / elapsed.Seconds()
	}
	slog.Info("run complete",
		"ticks", humanize.Comma(int64(g.tick)),
		"generations", humanize.Comma(int64(g.generation)),
		"high_score", humanize.FormatFloat("#,###.##", float64(g.highScore)),
		"hall_of_fame", g.hall.Len(),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"ticks_per_sec", humanize.FormatFloat("#,###.#", ticksPerSec),
		"output", g.outputManager.Dir(),
	)
}

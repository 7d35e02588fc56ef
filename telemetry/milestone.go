package telemetry

import (
	"fmt"
	"log/slog"
)

// MilestoneType identifies the kind of milestone.
type MilestoneType string

const (
	MilestoneNewHighScore MilestoneType = "new_high_score"
	MilestoneStagnation   MilestoneType = "stagnation"
	MilestoneBreakthrough MilestoneType = "breakthrough"
)

// Milestone is a notable generation detected automatically.
type Milestone struct {
	Type        MilestoneType `csv:"type"`
	Generation  int           `csv:"generation"`
	Tick        int32         `csv:"tick"`
	Value       float64       `csv:"value"`
	Description string        `csv:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"generation", m.Generation,
		"tick", m.Tick,
		"value", m.Value,
		"description", m.Description,
	)
}

// MilestoneDetector watches generation stats for notable moments.
type MilestoneDetector struct {
	// Rolling history of best fitness (circular buffer)
	history     []float64
	historyIdx  int
	historyFull bool

	breakthroughMultiple float64
	stagnationGens       int

	highScore     float64
	hasHighScore  bool
	sinceImproved int
}

// MilestoneConfig holds detector thresholds.
type MilestoneConfig struct {
	HistorySize          int
	BreakthroughMultiple float64
	StagnationGens       int
}

// NewMilestoneDetector creates a detector with the given thresholds.
func NewMilestoneDetector(cfg MilestoneConfig) *MilestoneDetector {
	if cfg.HistorySize < 3 {
		cfg.HistorySize = 3
	}
	if cfg.BreakthroughMultiple <= 1 {
		cfg.BreakthroughMultiple = 2
	}
	return &MilestoneDetector{
		history:              make([]float64, cfg.HistorySize),
		breakthroughMultiple: cfg.BreakthroughMultiple,
		stagnationGens:       cfg.StagnationGens,
	}
}

// Check analyzes the latest generation and returns any triggered milestones.
func (md *MilestoneDetector) Check(stats GenerationStats, tick int32) []Milestone {
	var out []Milestone

	if m := md.checkBreakthrough(stats, tick); m != nil {
		out = append(out, *m)
	}

	if !md.hasHighScore || stats.BestFitness > md.highScore {
		if md.hasHighScore {
			out = append(out, Milestone{
				Type:        MilestoneNewHighScore,
				Generation:  stats.Generation,
				Tick:        tick,
				Value:       stats.BestFitness,
				Description: fmt.Sprintf("High score %.2f beats %.2f", stats.BestFitness, md.highScore),
			})
		}
		md.highScore = stats.BestFitness
		md.hasHighScore = true
		md.sinceImproved = 0
	} else {
		md.sinceImproved++
		// Fire once per plateau
		if md.stagnationGens > 0 && md.sinceImproved == md.stagnationGens {
			out = append(out, Milestone{
				Type:        MilestoneStagnation,
				Generation:  stats.Generation,
				Tick:        tick,
				Value:       md.highScore,
				Description: fmt.Sprintf("No improvement on %.2f for %d generations", md.highScore, md.sinceImproved),
			})
		}
	}

	md.addToHistory(stats.BestFitness)
	return out
}

func (md *MilestoneDetector) addToHistory(best float64) {
	md.history[md.historyIdx] = best
	md.historyIdx = (md.historyIdx + 1) % len(md.history)
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

func (md *MilestoneDetector) getHistory() []float64 {
	if md.historyFull {
		return md.history
	}
	return md.history[:md.historyIdx]
}

func (md *MilestoneDetector) checkBreakthrough(stats GenerationStats, tick int32) *Milestone {
	history := md.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.BestFitness > avg*md.breakthroughMultiple {
		return &Milestone{
			Type:        MilestoneBreakthrough,
			Generation:  stats.Generation,
			Tick:        tick,
			Value:       stats.BestFitness,
			Description: fmt.Sprintf("Best %.2f is %.1fx rolling average (%.2f)", stats.BestFitness, stats.BestFitness/avg, avg),
		}
	}
	return nil
}

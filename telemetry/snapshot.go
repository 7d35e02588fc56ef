package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/orbs/neural"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	ArenaWidth  float32 `json:"arena_width"`
	ArenaHeight float32 `json:"arena_height"`

	Tick           int32   `json:"tick"`
	Generation     int     `json:"generation"`
	GenerationTick int32   `json:"generation_tick"`
	GenerationLen  int32   `json:"generation_len"`
	HighScore      float32 `json:"high_score"`

	Orbs    []OrbState    `json:"orbs"`
	Targets []TargetState `json:"targets"`
	Player  *PlayerState  `json:"player,omitempty"`

	Milestone *Milestone `json:"milestone,omitempty"`
}

// OrbState holds one orb's complete state.
type OrbState struct {
	ID      uint32  `json:"id"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	VelX    float32 `json:"vel_x"`
	VelY    float32 `json:"vel_y"`
	Radius  float32 `json:"radius"`
	Fitness float32 `json:"fitness"`

	Consumed  int `json:"consumed"`
	WallTicks int `json:"wall_ticks"`
	Contacts  int `json:"contacts"`

	Brain neural.Record `json:"brain"`
}

// TargetState holds one live target.
type TargetState struct {
	ID     uint32  `json:"id"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Radius float32 `json:"radius"`
}

// PlayerState holds the player orb.
type PlayerState struct {
	ID     uint32  `json:"id"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	VelX   float32 `json:"vel_x"`
	VelY   float32 `json:"vel_y"`
	Radius float32 `json:"radius"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_g%d_t%d", snapshot.Generation, snapshot.Tick)
	if snapshot.Milestone != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Milestone.Type), " ", "_")
		name += "_" + sanitized
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}

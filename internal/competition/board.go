// Package competition holds the data the referees publish to every team: the
// visual target location and the active hazard zones.
package competition

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/iha-referee/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultTarget is the visual marker position used when none is configured.
var DefaultTarget = models.TargetLocation{Lat: 41.51238882, Lon: 36.11935778}

// File is the YAML layout of a board file.
type File struct {
	Target  *models.TargetLocation `yaml:"target"`
	Hazards []models.HazardZone    `yaml:"hazards"`
}

// Board is safe for concurrent use. Hazard zones may be replaced at runtime.
type Board struct {
	mu      sync.RWMutex
	target  models.TargetLocation
	hazards []models.HazardZone
}

// NewBoard creates a board with the given target and no hazard zones.
func NewBoard(target models.TargetLocation) *Board {
	return &Board{target: target, hazards: []models.HazardZone{}}
}

// LoadBoard reads a board file. A missing target section selects target.
func LoadBoard(path string, target models.TargetLocation) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open board file: %w", err)
	}
	defer f.Close()
	return LoadBoardFromReader(f, target)
}

// LoadBoardFromReader is LoadBoard for an already open file.
func LoadBoardFromReader(r io.Reader, target models.TargetLocation) (*Board, error) {
	file, err := decode(r)
	if err != nil {
		return nil, err
	}

	if file.Target != nil {
		target = *file.Target
	}
	b := NewBoard(target)
	if err := b.Announce(file.Hazards); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload replaces the hazard zones with those in the file at path. The target
// location is fixed for the lifetime of the board.
func (b *Board) Reload(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open board file: %w", err)
	}
	defer f.Close()

	file, err := decode(f)
	if err != nil {
		return 0, err
	}
	if err := b.Announce(file.Hazards); err != nil {
		return 0, err
	}
	return len(file.Hazards), nil
}

func decode(r io.Reader) (*File, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse board file: %w", err)
	}
	return &file, nil
}

// Announce replaces the hazard zones. Zone ids must be unique and radii
// positive; on error the current zones are kept.
func (b *Board) Announce(zones []models.HazardZone) error {
	seen := make(map[int]bool, len(zones))
	for _, z := range zones {
		if seen[z.ID] {
			return fmt.Errorf("duplicate hazard zone id %d", z.ID)
		}
		if z.Radius <= 0 {
			return fmt.Errorf("hazard zone %d: radius must be positive", z.ID)
		}
		seen[z.ID] = true
	}

	next := make([]models.HazardZone, len(zones))
	copy(next, zones)

	b.mu.Lock()
	b.hazards = next
	b.mu.Unlock()
	return nil
}

// Target returns the visual marker location.
func (b *Board) Target() models.TargetLocation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.target
}

// Hazards returns a copy of the active hazard zones.
func (b *Board) Hazards() []models.HazardZone {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.HazardZone, len(b.hazards))
	copy(out, b.hazards)
	return out
}

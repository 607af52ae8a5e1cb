// Package roster holds the static table of registered teams.
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iha-referee/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrAuthFailure is returned when a login/credential pair matches no team.
var ErrAuthFailure = errors.New("invalid login or credential")

// Roster is read-only after construction and safe for concurrent use.
type Roster struct {
	entries []models.RosterEntry
	byLogin map[string]models.RosterEntry
}

// New builds a roster, rejecting duplicate logins or team ids.
func New(entries []models.RosterEntry) (*Roster, error) {
	r := &Roster{
		entries: make([]models.RosterEntry, 0, len(entries)),
		byLogin: make(map[string]models.RosterEntry, len(entries)),
	}
	teams := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.Login == "" {
			return nil, fmt.Errorf("team %d: empty login", e.TeamID)
		}
		if _, dup := r.byLogin[e.Login]; dup {
			return nil, fmt.Errorf("duplicate login %q", e.Login)
		}
		if _, dup := teams[e.TeamID]; dup {
			return nil, fmt.Errorf("duplicate team number %d", e.TeamID)
		}
		teams[e.TeamID] = struct{}{}
		r.byLogin[e.Login] = e
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Load reads a roster file. YAML and JSON files are both accepted.
func Load(path string) (*Roster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses a roster from r.
func LoadFromReader(r io.Reader) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var entries []models.RosterEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return New(entries)
}

// Authenticate returns the team bound to an exact login/credential match.
func (r *Roster) Authenticate(login, credential string) (int, error) {
	e, ok := r.byLogin[login]
	if !ok || e.Credential != credential {
		return 0, ErrAuthFailure
	}
	return e.TeamID, nil
}

// Entries returns a copy of the roster.
func (r *Roster) Entries() []models.RosterEntry {
	out := make([]models.RosterEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered teams.
func (r *Roster) Len() int {
	return len(r.entries)
}

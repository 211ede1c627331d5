package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"swarmcycle/internal/iteration"
)

// Member represents one team member captured in team.json. Covers names
// the plan role (backend, frontend, qa) the member picks tasks up for.
type Member struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Covers string `json:"covers"`
}

// Normalize ensures essential fields are present.
func (m Member) Normalize() (Member, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Role = strings.TrimSpace(m.Role)
	m.Covers = strings.ToLower(strings.TrimSpace(m.Covers))
	if m.Name == "" {
		return Member{}, errors.New("team member missing name")
	}
	switch iteration.Role(m.Covers) {
	case iteration.RoleBackend, iteration.RoleFrontend, iteration.RoleQA:
	default:
		return Member{}, fmt.Errorf("team member %s covers unknown role %q", m.Name, m.Covers)
	}
	return m, nil
}

// DefaultRoster returns the built-in three-member team.
func DefaultRoster() []Member {
	return []Member{
		{Name: "Backend SWE", Role: "engineer", Covers: string(iteration.RoleBackend)},
		{Name: "Frontend SWE", Role: "engineer", Covers: string(iteration.RoleFrontend)},
		{Name: "QA Engineer", Role: "tester", Covers: string(iteration.RoleQA)},
	}
}

// LoadRoster reads the team roster from disk. A missing file yields the
// default roster so a fresh project works without setup.
func LoadRoster(path string) ([]Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRoster(), nil
		}
		return nil, fmt.Errorf("agent: read roster %s: %w", path, err)
	}
	var members []Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("agent: parse roster %s: %w", path, err)
	}
	out := make([]Member, 0, len(members))
	for idx, member := range members {
		normalized, err := member.Normalize()
		if err != nil {
			return nil, fmt.Errorf("agent: roster %s entry[%d]: %w", path, idx, err)
		}
		out = append(out, normalized)
	}
	return out, nil
}

// SaveRoster writes the team roster to disk, creating parent directories.
func SaveRoster(path string, members []Member) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("agent: ensure roster dir: %w", err)
	}
	data, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return fmt.Errorf("agent: encode roster: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

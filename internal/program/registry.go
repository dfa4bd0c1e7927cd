package program

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry resolves programs by id. Lookups never fail with anything other
// than ErrProgramNotFound.
type Registry struct {
	mu       sync.RWMutex
	programs map[string]*Program
	order    []string // registration order, used for listing
}

// NewRegistry creates a registry holding the given programs.
// Every program is validated and ids must be unique.
func NewRegistry(programs ...Program) (*Registry, error) {
	r := &Registry{programs: make(map[string]*Program)}
	for _, p := range programs {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry with the built-in programs
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinPrograms()...)
	if err != nil {
		panic("program: built-in programs are invalid: " + err.Error())
	}
	return r
}

// Add registers a copy of p
func (r *Registry) Add(p Program) error {
	if p.ID == "" {
		return fmt.Errorf("%w: program %q has no id", ErrInvalidProgram, p.Name)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	stored := p
	stored.Segments = append([]Segment(nil), p.Segments...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.programs[p.ID]; exists {
		return fmt.Errorf("%w: duplicate program id %q", ErrInvalidProgram, p.ID)
	}
	r.programs[p.ID] = &stored
	r.order = append(r.order, p.ID)
	return nil
}

// FindProgram returns the program with the given id, or an error wrapping
// ErrProgramNotFound.
func (r *Registry) FindProgram(id string) (*Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProgramNotFound, id)
	}
	return p, nil
}

// All returns the registered programs in registration order
func (r *Registry) All() []*Program {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Program, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.programs[id])
	}
	return result
}

// Len returns the number of registered programs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

type programFile struct {
	Programs []Program `yaml:"programs"`
}

// LoadFile reads additional programs from a YAML file and registers them.
// A missing file is not an error. Returns the number of programs added.
func (r *Registry) LoadFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read programs file: %w", err)
	}

	var file programFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse programs yaml: %w", err)
	}

	added := 0
	for _, p := range file.Programs {
		if p.TotalDuration == 0 {
			p.TotalDuration = p.SegmentSum()
		}
		if err := r.Add(p); err != nil {
			return added, fmt.Errorf("programs file %s: %w", path, err)
		}
		added++
	}
	return added, nil
}

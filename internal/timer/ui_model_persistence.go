package timer

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const uiStateFileName = "ui_state.json"

type uiModelPersistenceData struct {
	LastProgramID string `json:"last_program_id"`
}

type uiModelPersistence struct {
	mu       sync.Mutex
	filePath string // "" disables persistence
	data     uiModelPersistenceData
	logger   *log.Logger
}

func newUIModelPersistence(logger *log.Logger, stateDir string) *uiModelPersistence {
	p := &uiModelPersistence{logger: logger}
	if stateDir != "" {
		p.filePath = filepath.Join(stateDir, uiStateFileName)
	}
	p.load()
	return p
}

func (p *uiModelPersistence) getLastProgram() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastProgramID
}

func (p *uiModelPersistence) setLastProgram(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.LastProgramID == id {
		return
	}
	p.logger.Printf("UIModelPersistence: setLastProgram -> %q", id)
	p.data.LastProgramID = id
	p.save()
}

func (p *uiModelPersistence) load() {
	p.data = uiModelPersistenceData{}
	if p.filePath == "" {
		return
	}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("UIModelPersistence: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed to parse: %v", p.filePath, err)
		return
	}
	p.logger.Printf("UIModelPersistence: load %s -> %q", p.filePath, p.data.LastProgramID)
}

// save MUST be called with mu held.
func (p *uiModelPersistence) save() {
	if p.filePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("UIModelPersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("UIModelPersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("UIModelPersistence: save %s failed: %v", p.filePath, err)
		return
	}
	p.logger.Printf("UIModelPersistence: save %s -> %q", p.filePath, p.data.LastProgramID)
}

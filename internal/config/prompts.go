package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LoadedPrompt holds prompt text read from files for one operation
type LoadedPrompt struct {
	System string
	User   string
}

// PromptStore holds prompt file contents per operation. Safe for concurrent use;
// the server reloads entries while handlers read them.
type PromptStore struct {
	mu      sync.RWMutex
	prompts map[Operation]LoadedPrompt
	files   map[string]promptRef
}

type promptRef struct {
	op   Operation
	kind string // "system" or "user"
}

// NewPromptStore creates an empty store
func NewPromptStore() *PromptStore {
	return &PromptStore{
		prompts: make(map[Operation]LoadedPrompt),
		files:   make(map[string]promptRef),
	}
}

// LoadPrompts reads every prompt file referenced by cfg into a new store
func LoadPrompts(cfg *Config) (*PromptStore, error) {
	store := NewPromptStore()
	for _, op := range Operations {
		opCfg, _ := cfg.operation(op)
		if path := opCfg.CustomPrompts.SystemFile; path != "" {
			if err := store.register(path, promptRef{op: op, kind: "system"}); err != nil {
				return nil, err
			}
		}
		if path := opCfg.CustomPrompts.UserFile; path != "" {
			if err := store.register(path, promptRef{op: op, kind: "user"}); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}

func (s *PromptStore) register(path string, ref promptRef) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", ref.op, ref.kind, path, err)
	}
	content, err := readPromptFile(absPath)
	if err != nil {
		return fmt.Errorf("%s %s prompt: %w", ref.op, ref.kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[absPath] = ref
	s.setLocked(ref, content)
	return nil
}

func (s *PromptStore) setLocked(ref promptRef, content string) {
	loaded := s.prompts[ref.op]
	if ref.kind == "system" {
		loaded.System = content
	} else {
		loaded.User = content
	}
	s.prompts[ref.op] = loaded
}

// Get returns the loaded prompts for op
func (s *PromptStore) Get(op Operation) LoadedPrompt {
	if s == nil {
		return LoadedPrompt{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts[op]
}

// Files returns the absolute paths of every loaded prompt file
func (s *PromptStore) Files() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]string, 0, len(s.files))
	for path := range s.files {
		files = append(files, path)
	}
	return files
}

// Reload re-reads one prompt file. The previous content is kept on error.
func (s *PromptStore) Reload(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	s.mu.RLock()
	ref, ok := s.files[absPath]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("prompt file is not tracked: %s", absPath)
	}

	content, err := readPromptFile(absPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.setLocked(ref, content)
	s.mu.Unlock()
	return nil
}

func readPromptFile(absPath string) (string, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file '%s': %w", absPath, err)
	}
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", absPath)
	}
	return trimmed, nil
}

// ResolvePrompt picks the prompt for op: loaded file, then config string, then fallback
func (c *Config) ResolvePrompt(store *PromptStore, op Operation, kind string, fallback string) string {
	loaded := store.Get(op)
	opCfg, _ := c.operation(op)

	var fromFile, fromConfig string
	if kind == "system" {
		fromFile, fromConfig = loaded.System, opCfg.CustomPrompts.System
	} else {
		fromFile, fromConfig = loaded.User, opCfg.CustomPrompts.User
	}

	if fromFile != "" {
		return fromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fallback
}

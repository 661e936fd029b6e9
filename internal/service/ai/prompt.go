package ai

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// defaultSystemPrompt keeps the assistant usable when neither a settings
// override nor a prompt file is configured.
const defaultSystemPrompt = "You are a helpful assistant for the LicenseKaki " +
	"electrical-installation licensing portal. Answer questions about licence " +
	"applications, renewals, required documents, pricing tiers and payments. " +
	"Keep answers short and practical, and point users to the relevant portal " +
	"page where one exists."

// promptCacheTTL bounds how long a resolved prompt is served before the
// settings override is consulted again.
const promptCacheTTL = 60 * time.Second

// SettingStore exposes the admin-managed system prompt override.
type SettingStore interface {
	SystemPrompt() (string, bool)
}

// MemorySettings implements SettingStore in memory.
type MemorySettings struct {
	mu     sync.RWMutex
	prompt string
}

// NewMemorySettings returns an empty in-memory settings store.
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{}
}

// SetSystemPrompt stores the override; a blank value removes it.
func (s *MemorySettings) SetSystemPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = strings.TrimSpace(prompt)
	s.mu.Unlock()
}

// SystemPrompt returns the override and whether one is set.
func (s *MemorySettings) SystemPrompt() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt, s.prompt != ""
}

// PromptSource resolves the system prompt: settings override first, then the
// configured prompt file, then the built-in default. Results are cached with
// a short TTL so settings edits propagate without a restart.
type PromptSource struct {
	mu       sync.Mutex
	settings SettingStore
	file     string
	now      func() time.Time

	cached string
	expiry time.Time
}

// NewPromptSource builds a source over an optional settings store and an
// optional prompt file path.
func NewPromptSource(settings SettingStore, file string) *PromptSource {
	return &PromptSource{
		settings: settings,
		file:     file,
		now:      time.Now,
	}
}

// SystemPrompt returns the current system prompt.
func (p *PromptSource) SystemPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Before(p.expiry) && p.cached != "" {
		return p.cached
	}

	p.cached = p.resolve()
	p.expiry = now.Add(promptCacheTTL)
	return p.cached
}

// Invalidate drops the cache so the next read re-resolves immediately.
func (p *PromptSource) Invalidate() {
	p.mu.Lock()
	p.expiry = time.Time{}
	p.mu.Unlock()
}

func (p *PromptSource) resolve() string {
	if p.settings != nil {
		if prompt, ok := p.settings.SystemPrompt(); ok {
			return prompt
		}
	}

	if p.file != "" {
		data, err := os.ReadFile(p.file)
		if err != nil {
			log.Printf("[ai] failed to read prompt file %s: %v", p.file, err)
		} else if prompt := strings.TrimSpace(string(data)); prompt != "" {
			return prompt
		}
	}

	return defaultSystemPrompt
}

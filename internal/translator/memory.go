package translator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/mdtrans/internal/store"
)

// MemoryStore is the subset of *store.Store used for translation memory.
type MemoryStore interface {
	GetCachedTranslation(ctx context.Context, key store.MemoryKey) (string, bool, error)
	SaveToMemory(ctx context.Context, key store.MemoryKey, translated string) error
}

// Memory serves repeated documents from the translation memory. A document
// is only reused when model and system prompt (glossary included) match.
type Memory struct {
	next        Translator
	store       MemoryStore
	model       string
	fingerprint string
	logger      zerolog.Logger
}

func NewMemory(next Translator, st MemoryStore, model, systemPrompt string, logger zerolog.Logger) *Memory {
	return &Memory{
		next:        next,
		store:       st,
		model:       model,
		fingerprint: Fingerprint(systemPrompt),
		logger:      logger.With().Str("component", "memory").Logger(),
	}
}

func (m *Memory) Translate(ctx context.Context, text string) (string, error) {
	key := store.MemoryKey{SourceText: text, Model: m.model, PromptHash: m.fingerprint}

	cached, found, err := m.store.GetCachedTranslation(ctx, key)
	if err != nil {
		m.logger.Warn().Err(err).Msg("translation memory lookup failed")
	} else if found {
		m.logger.Debug().Msg("using cached translation")
		return cached, nil
	}

	translated, err := m.next.Translate(ctx, text)
	if err != nil {
		return "", err
	}

	if err := m.store.SaveToMemory(ctx, key, translated); err != nil {
		m.logger.Warn().Err(err).Msg("failed to save translation memory")
	}
	return translated, nil
}

// Fingerprint hashes its parts into a stable hex key.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

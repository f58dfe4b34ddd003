package blobkey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxExtensionLength bounds the cosmetic suffix copied from the original name
const maxExtensionLength = 16

// Generator defines the interface for blob key generation strategies.
// Keys must never be derived from the caller-supplied name beyond a
// sanitized extension.
type Generator interface {
	// GenerateKey creates a new storage key for a file originally named originalName
	GenerateKey(originalName string) string
}

// TimestampGenerator produces flat keys of the form
// {unix-nanos}-{random}{.ext}, e.g. 1712345678901234567-9f86d081884c7d65.zip
type TimestampGenerator struct {
	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{Now: time.Now}
}

func (g *TimestampGenerator) GenerateKey(originalName string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s%s", now().UnixNano(), random, Extension(originalName))
}

// ShardedGenerator spreads keys from a base generator across two-level
// directories: objects/{shard}/{key}. The shard is derived from a hash of the
// generated key, so it carries no caller input.
type ShardedGenerator struct {
	BaseGenerator Generator
	// ShardLength controls how many hex characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{
		BaseGenerator: NewTimestampGenerator(),
		ShardLength:   2,
	}
}

func (g *ShardedGenerator) GenerateKey(originalName string) string {
	key := g.BaseGenerator.GenerateKey(originalName)
	sum := sha256.Sum256([]byte(key))
	hash := hex.EncodeToString(sum[:])

	shardLength := g.ShardLength
	if shardLength <= 0 {
		shardLength = 2
	}
	if shardLength > len(hash) {
		shardLength = len(hash)
	}
	return fmt.Sprintf("objects/%s/%s", hash[:shardLength], key)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(originalName string) string
}

func NewCustomFuncGenerator(fn func(originalName string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(originalName string) string {
	return g.GenerateFunc(originalName)
}

// Extension returns the lower-cased extension of name including the dot, or
// "" when the extension is empty, too long, or contains anything other than
// ASCII letters and digits.
func Extension(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 || len(ext) > maxExtensionLength {
		return ""
	}
	for _, r := range ext[1:] {
		isDigit := r >= '0' && r <= '9'
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isDigit && !isLetter {
			return ""
		}
	}
	return strings.ToLower(ext)
}

// NewDefaultGenerator returns the generator used when none is configured
func NewDefaultGenerator() Generator {
	return NewTimestampGenerator()
}

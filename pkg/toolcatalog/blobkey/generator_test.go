package blobkey

import (
	"strings"
	"testing"
	"time"
)

func TestTimestampGenerator(t *testing.T) {
	fixed := time.Unix(1712345678, 901234567)
	gen := &TimestampGenerator{Now: func() time.Time { return fixed }}

	tests := []struct {
		name         string
		originalName string
		prefix       string
		suffix       string
	}{
		{
			name:         "with extension",
			originalName: "nmap-wrapper.zip",
			prefix:       "1712345678901234567-",
			suffix:       ".zip",
		},
		{
			name:         "upper case extension is lowered",
			originalName: "Tool.EXE",
			prefix:       "1712345678901234567-",
			suffix:       ".exe",
		},
		{
			name:         "no extension",
			originalName: "README",
			prefix:       "1712345678901234567-",
			suffix:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gen.GenerateKey(tt.originalName)
			if !strings.HasPrefix(result, tt.prefix) {
				t.Errorf("expected prefix %s, got %s", tt.prefix, result)
			}
			if tt.suffix != "" && !strings.HasSuffix(result, tt.suffix) {
				t.Errorf("expected suffix %s, got %s", tt.suffix, result)
			}
			if strings.Contains(result, "/") {
				t.Errorf("flat key must not contain a separator: %s", result)
			}
		})
	}
}

func TestTimestampGenerator_Unique(t *testing.T) {
	fixed := time.Unix(0, 42)
	gen := &TimestampGenerator{Now: func() time.Time { return fixed }}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key := gen.GenerateKey("a.bin")
		if seen[key] {
			t.Fatalf("duplicate key generated with a frozen clock: %s", key)
		}
		seen[key] = true
	}
}

func TestTimestampGenerator_IgnoresHostileNames(t *testing.T) {
	gen := NewTimestampGenerator()

	for _, name := range []string{
		"../../etc/passwd",
		"..\\..\\windows\\system32.dll\\x",
		"evil.sh;rm -rf",
		"/absolute/path/tool.tar",
		"spaces in.na me",
	} {
		key := gen.GenerateKey(name)
		if strings.Contains(key, "..") || strings.Contains(key, "/") || strings.Contains(key, "\\") {
			t.Errorf("key for %q leaks path components: %s", name, key)
		}
		if strings.Contains(key, "passwd") || strings.Contains(key, "evil") {
			t.Errorf("key for %q contains caller-supplied text: %s", name, key)
		}
	}
}

func TestShardedGenerator(t *testing.T) {
	gen := &ShardedGenerator{
		BaseGenerator: NewCustomFuncGenerator(func(string) string { return "fixed-key.bin" }),
		ShardLength:   2,
	}

	result := gen.GenerateKey("tool.bin")
	parts := strings.Split(result, "/")
	if len(parts) != 3 {
		t.Fatalf("expected objects/{shard}/{key}, got %s", result)
	}
	if parts[0] != "objects" {
		t.Errorf("expected objects prefix, got %s", parts[0])
	}
	if len(parts[1]) != 2 {
		t.Errorf("expected 2-char shard, got %s", parts[1])
	}
	if parts[2] != "fixed-key.bin" {
		t.Errorf("expected base key preserved, got %s", parts[2])
	}

	// Deterministic for the same base key
	if again := gen.GenerateKey("other.bin"); again != result {
		t.Errorf("expected deterministic shard, got %s and %s", result, again)
	}
}

func TestShardedGenerator_DefaultShardLength(t *testing.T) {
	gen := &ShardedGenerator{BaseGenerator: NewTimestampGenerator()}
	parts := strings.Split(gen.GenerateKey("x.zip"), "/")
	if len(parts) != 3 || len(parts[1]) != 2 {
		t.Fatalf("unexpected sharded key layout: %v", parts)
	}
}

func TestCustomFuncGenerator(t *testing.T) {
	gen := NewCustomFuncGenerator(func(originalName string) string {
		return "custom/" + Extension(originalName)
	})

	if got := gen.GenerateKey("file.TXT"); got != "custom/.txt" {
		t.Errorf("expected custom/.txt, got %s", got)
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"tool.zip", ".zip"},
		{"archive.tar.gz", ".gz"},
		{"Setup.EXE", ".exe"},
		{"noext", ""},
		{"trailingdot.", ""},
		{"weird.z!p", ""},
		{"long.abcdefghijklmnopqrstuvwxyz", ""},
		{"dir.d/file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Extension(tt.input); got != tt.expected {
				t.Errorf("Extension(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

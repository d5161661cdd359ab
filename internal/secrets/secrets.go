// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials for the engine.
//
// Secrets come from two places, environment taking precedence over files:
//   - plain-text files in a directory, where the filename is the key name
//     and the trimmed contents are the value
//   - COUNSEL_ENGINE_SECRET_* environment variables, where the suffix maps
//     to a key name (COUNSEL_ENGINE_SECRET_OPENAI_API_KEY -> openai-api-key)
//
// Known keys: courtlistener-api-token, semantic-scholar-api-key,
// openai-api-key, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envPrefix marks environment variables carrying secret values.
const envPrefix = "COUNSEL_ENGINE_SECRET_"

// knownKeys lists the key names the engine consumes. Unknown keys still
// load, but produce a warning so misspelled filenames get caught.
var knownKeys = map[string]bool{
	"courtlistener-api-token":  true,
	"semantic-scholar-api-key": true,
	"openai-api-key":           true,
	"openalex-email":           true,
}

// Load gathers secrets from dir and the environment. A missing directory
// is not an error; Load then returns environment secrets only. Unreadable
// files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	secrets := make(map[string]string)
	if err := loadDir(dir, secrets); err != nil {
		return nil, err
	}
	loadEnv(secrets)
	return secrets, nil
}

func loadDir(dir string, secrets map[string]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !knownKeys[name] {
			fmt.Fprintf(os.Stderr, "warning: unknown secret key %q\n", name)
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}
	return nil
}

func loadEnv(secrets map[string]string) {
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(kv, envPrefix), "=")
		if !ok || key == "" {
			continue
		}
		name := strings.ReplaceAll(strings.ToLower(key), "_", "-")
		if value = strings.TrimSpace(value); value != "" {
			secrets[name] = value
		}
	}
}

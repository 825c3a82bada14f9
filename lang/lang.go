package lang

import (
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	mu       sync.RWMutex
	messages map[string]string
)

// Load reads the message-template file. Nested YAML maps are flattened
// into dotted lowercase keys, so
//
//	error:
//	  incorrect_perms: "You do not have permission."
//
// becomes "error.incorrect_perms".
func Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[lang] Could not read %s: %v — using empty templates", path, err)
		mu.Lock()
		messages = make(map[string]string)
		mu.Unlock()
		return
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		log.Fatalf("[lang] Failed to parse %s: %v", path, err)
	}

	m := make(map[string]string)
	flatten("", raw, m)

	mu.Lock()
	messages = m
	mu.Unlock()

	log.Printf("[lang] Loaded %d message templates from %s", len(m), path)
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := strings.ToLower(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]interface{}:
			flatten(key, val, out)
		}
	}
}

// T looks up a template and substitutes {placeholder} pairs. Pairs are
// given as key, value, key, value...
func T(key string, pairs ...string) string {
	mu.RLock()
	s, ok := messages[key]
	mu.RUnlock()

	if !ok {
		return "{" + key + "}"
	}

	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}

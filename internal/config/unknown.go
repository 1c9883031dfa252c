package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxSuggestionDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxSuggestionDistance = 3

// knownKeys are the valid top-level keys in the config file.
var knownKeys = map[string]bool{
	"interval": true, "probe_on_start": true,
	"credentials_file": true, "token_file": true,
	"log_level": true, "log_format": true, "log_file": true,
	"audit_enabled": true, "audit_db": true,
}

// knownKeysList is the sorted slice form of knownKeys, for deterministic
// suggestions when two candidates have the same edit distance.
var knownKeysList = func() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys rejects config files containing keys the decoder did not
// map to any field, attaching a closest-match suggestion when one is near.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(undecoded))

	for _, key := range undecoded {
		name := key.String()

		msg := fmt.Sprintf("unknown config key %q", name)
		if suggestion := closestKey(name); suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}

		msgs = append(msgs, msg)
	}

	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// closestKey returns the known key nearest to name within the suggestion
// distance, or "" if none is close enough.
func closestKey(name string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1

	for _, candidate := range knownKeysList {
		if d := levenshtein(name, candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}

	return best
}

// levenshtein computes the edit distance between two strings using the
// two-row dynamic programming form.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys lists the valid keys of each section.
var knownKeys = map[string][]string{
	"github":  {"api_url", "branch", "commit_prefix"},
	"storage": {"data_dir"},
	"logging": {"log_level", "log_file", "log_format", "log_retention_days"},
	"network": {"timeout", "user_agent", "max_retries"},
	"advice":  {"model", "max_tokens", "api_url"},
	"metrics": {"textfile"},
}

// knownSections is the sorted list of section names. Sorted for
// deterministic suggestions when two candidates tie.
var knownSections = func() []string {
	names := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}()

// sectionOf returns the section a misplaced top-level key belongs to.
func sectionOf(key string) string {
	for _, section := range knownSections {
		for _, k := range knownKeys[section] {
			if k == key {
				return section
			}
		}
	}

	return ""
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error

	for _, key := range md.Undecoded() {
		if err := unknownKeyError(key); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func unknownKeyError(key toml.Key) error {
	if len(key) == 1 {
		name := key[0]

		if section := sectionOf(name); section != "" {
			return fmt.Errorf("unknown config key %q: it belongs in the [%s] section", name, section)
		}

		if suggestion := closestMatch(name, knownSections); suggestion != "" {
			return fmt.Errorf("unknown config key %q, did you mean [%s]?", name, suggestion)
		}

		return fmt.Errorf("unknown config key %q", name)
	}

	// Keys below an unknown table are reported once, for the table itself.
	if len(key) > 2 {
		return nil
	}

	section, field := key[0], key[1]

	keys, ok := knownKeys[section]
	if !ok {
		return nil
	}

	if suggestion := closestMatch(field, keys); suggestion != "" {
		return fmt.Errorf("unknown config key %q in [%s], did you mean %q?", field, section, suggestion)
	}

	return fmt.Errorf("unknown config key %q in [%s]", field, section)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(strings.ToLower(unknown), k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

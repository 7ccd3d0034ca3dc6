// Package featureflags evaluates product switches configured through
// FEATURE_FLAGS, e.g. "leaderboard_cache=on,credit_all_groups=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Known flags.
const (
	// CreditAllGroups credits a contest submission to every participating
	// group the submitter belongs to instead of only the first.
	CreditAllGroups = "credit_all_groups"
	// LeaderboardCache serves leaderboards through the Redis cache.
	LeaderboardCache = "leaderboard_cache"
)

// Defaults apply to known flags the configuration leaves out.
var Defaults = map[string]string{
	CreditAllGroups:  "off",
	LeaderboardCache: "on",
}

// rule is a parsed flag value: fully on, fully off, or a percentage of users.
type rule struct {
	raw     string
	percent int
}

func parseRule(value string) (rule, error) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, percent: 100}, nil
	case "off", "false", "0":
		return rule{raw: value}, nil
	}
	pct, ok := strings.CutSuffix(value, "%")
	if !ok {
		return rule{}, fmt.Errorf("unsupported value %q", value)
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return rule{}, fmt.Errorf("bad percentage %q", value)
	}
	return rule{raw: value, percent: min(max(n, 0), 100)}, nil
}

// Manager holds the parsed flags. A nil Manager enables nothing.
type Manager struct {
	rules   map[string]rule
	invalid []string
}

// NewManager parses a comma-separated key=value list on top of Defaults.
// Malformed entries are skipped and reported by Invalid.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule, len(Defaults))}
	for name, value := range Defaults {
		r, _ := parseRule(value)
		m.rules[name] = r
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, "=")
		name, value = normalize(name), normalize(value)
		if !ok || name == "" || value == "" {
			m.invalid = append(m.invalid, entry)
			continue
		}
		r, err := parseRule(value)
		if err != nil {
			m.invalid = append(m.invalid, entry)
			continue
		}
		m.rules[name] = r
	}
	return m
}

// Invalid lists the entries NewManager could not parse.
func (m *Manager) Invalid() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.invalid)
}

// Enabled reports whether name is on for userID. Percentage rollouts bucket
// users deterministically and never include the anonymous user 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := map[string]bool{}
	if m == nil {
		return out
	}
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// Names returns the flag names in order.
func (m *Manager) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.rules))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}

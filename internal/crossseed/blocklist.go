// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// RuleType is the prefix of a blocklist entry.
type RuleType string

const (
	RuleName        RuleType = "name"
	RuleNameRegex   RuleType = "nameRegex"
	RuleFolder      RuleType = "folder"
	RuleFolderRegex RuleType = "folderRegex"
	RuleCategory    RuleType = "category"
	RuleTag         RuleType = "tag"
	RuleTracker     RuleType = "tracker"
	RuleInfoHash    RuleType = "infoHash"
	RuleSizeBelow   RuleType = "sizeBelow"
	RuleSizeAbove   RuleType = "sizeAbove"
	RuleLegacy      RuleType = "legacy"
)

// RuleTypes lists the recognised rule types in display order.
var RuleTypes = []RuleType{
	RuleName, RuleNameRegex, RuleFolder, RuleFolderRegex, RuleCategory,
	RuleTag, RuleTracker, RuleInfoHash, RuleSizeBelow, RuleSizeAbove,
}

var (
	rulePattern    = regexp.MustCompile(`^(.+?):(.*)$`)
	leadingInteger = regexp.MustCompile(`^\s*[+-]?\d+`)
)

// Rule is a parsed blocklist entry.
type Rule struct {
	Type  RuleType
	Value string
	// Raw is the entry as written.
	Raw string
}

// Known reports whether the rule type is one the scanner understands.
func (r Rule) Known() bool {
	if r.Type == RuleLegacy {
		return true
	}
	for _, t := range RuleTypes {
		if r.Type == t {
			return true
		}
	}
	return false
}

// ParseRule splits an entry at its first colon. Entries without a colon are
// legacy rules matched against name, hash and folder.
func ParseRule(entry string) Rule {
	m := rulePattern.FindStringSubmatch(entry)
	if m == nil {
		return Rule{Type: RuleLegacy, Value: entry, Raw: entry}
	}
	return Rule{Type: RuleType(m[1]), Value: m[2], Raw: entry}
}

// ParseBlocklistText turns textarea input into entries: one per line, trimmed,
// blank lines dropped.
func ParseBlocklistText(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatBlocklistText is the inverse of ParseBlocklistText.
func FormatBlocklistText(entries []string) string {
	return strings.Join(entries, "\n")
}

// BlocklistError describes one problematic entry.
type BlocklistError struct {
	Line  int
	Entry string
	Cause string
}

func (e *BlocklistError) Error() string {
	return fmt.Sprintf("line %d (%q): %s", e.Line, e.Entry, e.Cause)
}

// ValidateBlocklist reports entries the scanner would silently ignore: unknown
// types, patterns that do not compile and sizes without a leading integer.
// Patterns are checked with Go's RE2 syntax, which is stricter than the
// scanner's; treat failures as warnings.
func ValidateBlocklist(entries []string) error {
	var errs []error
	for i, entry := range entries {
		rule := ParseRule(entry)
		if cause := rule.problem(); cause != "" {
			errs = append(errs, &BlocklistError{Line: i + 1, Entry: entry, Cause: cause})
		}
	}
	return errors.Join(errs...)
}

func (r Rule) problem() string {
	switch r.Type {
	case RuleNameRegex, RuleFolderRegex:
		if _, err := regexp.Compile(r.Value); err != nil {
			return "invalid pattern: " + err.Error()
		}
	case RuleSizeBelow, RuleSizeAbove:
		if !leadingInteger.MatchString(r.Value) {
			return "size must start with a number of bytes"
		}
	case RuleTracker:
		return "tracker rules are not applied by the scanner"
	default:
		if !r.Known() {
			return fmt.Sprintf("unknown rule type %q", r.Type)
		}
	}
	return ""
}

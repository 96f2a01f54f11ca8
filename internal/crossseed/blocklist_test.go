// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		entry string
		want  Rule
		known bool
	}{
		{entry: "name:Sample", want: Rule{Type: RuleName, Value: "Sample"}, known: true},
		{entry: "nameRegex:^Show\\.S\\d+:x", want: Rule{Type: RuleNameRegex, Value: "^Show\\.S\\d+:x"}, known: true},
		{entry: "sizeBelow:1048576", want: Rule{Type: RuleSizeBelow, Value: "1048576"}, known: true},
		{entry: "tag:", want: Rule{Type: RuleTag, Value: ""}, known: true},
		{entry: "abcdef0123", want: Rule{Type: RuleLegacy, Value: "abcdef0123"}, known: true},
		{entry: "label:foo", want: Rule{Type: "label", Value: "foo"}, known: false},
		{entry: ":foo", want: Rule{Type: RuleLegacy, Value: ":foo"}, known: true},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			got := ParseRule(tt.entry)
			tt.want.Raw = tt.entry
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, got.Known())
		})
	}
}

func TestBlocklistText(t *testing.T) {
	entries := ParseBlocklistText("  name:foo \n\n\ttag:bar\n   \ncategory:tv")
	assert.Equal(t, []string{"name:foo", "tag:bar", "category:tv"}, entries)
	assert.Equal(t, "name:foo\ntag:bar\ncategory:tv", FormatBlocklistText(entries))
	assert.Equal(t, []string{}, ParseBlocklistText(""))
}

func TestValidateBlocklist(t *testing.T) {
	require.NoError(t, ValidateBlocklist(nil))
	require.NoError(t, ValidateBlocklist([]string{"name:foo", "folderRegex:^/data/(tv|movies)", "sizeAbove:100GB", "legacyhash"}))

	err := ValidateBlocklist([]string{
		"name:ok",
		"nameRegex:([",
		"sizeBelow:small",
		"tracker:example.org",
		"label:foo",
	})
	require.Error(t, err)

	var lines []int
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var be *BlocklistError
		require.True(t, errors.As(e, &be))
		lines = append(lines, be.Line)
	}
	assert.Equal(t, []int{2, 3, 4, 5}, lines)
	assert.Contains(t, err.Error(), `line 5 ("label:foo"): unknown rule type "label"`)
}

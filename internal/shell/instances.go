// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package shell

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

// InstanceNotFoundError is returned when no instance matches a reference.
type InstanceNotFoundError struct {
	Ref         string
	Suggestions []string
}

func (e *InstanceNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("instance %q not found", e.Ref)
	}
	return fmt.Sprintf("instance %q not found (did you mean %s?)", e.Ref, strings.Join(e.Suggestions, ", "))
}

// InstanceSelector resolves user input to one of the configured instances.
type InstanceSelector struct {
	instances []webui.Instance
}

func NewInstanceSelector(instances []webui.Instance) InstanceSelector {
	return InstanceSelector{instances: append([]webui.Instance(nil), instances...)}
}

func (s InstanceSelector) Instances() []webui.Instance {
	return append([]webui.Instance(nil), s.instances...)
}

// Resolve matches ref against instance ids first, then labels
// (case-insensitive). An empty ref picks the first instance.
func (s InstanceSelector) Resolve(ref string) (webui.Instance, error) {
	ref = strings.TrimSpace(ref)
	if len(s.instances) == 0 {
		return webui.Instance{}, &InstanceNotFoundError{Ref: ref}
	}
	if ref == "" {
		return s.instances[0], nil
	}

	if id, err := strconv.Atoi(ref); err == nil {
		for _, in := range s.instances {
			if in.ID == id {
				return in, nil
			}
		}
	}
	for _, in := range s.instances {
		if strings.EqualFold(in.Label, ref) {
			return in, nil
		}
	}

	labels := make([]string, len(s.instances))
	for i, in := range s.instances {
		labels[i] = in.Label
	}
	ranks := fuzzy.RankFindNormalizedFold(ref, labels)
	sort.Sort(ranks)
	suggestions := make([]string, 0, len(ranks))
	for _, r := range ranks {
		suggestions = append(suggestions, r.Target)
	}
	return webui.Instance{}, &InstanceNotFoundError{Ref: ref, Suggestions: suggestions}
}

// Next returns the instance after id, wrapping around. Unknown ids yield
// the first instance.
func (s InstanceSelector) Next(id int, step int) (webui.Instance, bool) {
	n := len(s.instances)
	if n == 0 {
		return webui.Instance{}, false
	}
	for i, in := range s.instances {
		if in.ID == id {
			return s.instances[((i+step)%n+n)%n], true
		}
	}
	return s.instances[0], true
}

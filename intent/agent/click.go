package agent

import (
	"strings"
	"unicode"

	"github.com/unifygtm/intent-go/intent/activity"
)

// ElementClickedEvent is the event name used for tracked clicks that do
// not declare a custom name.
const ElementClickedEvent = "Element Clicked"

const (
	// LegacyClickSelector matches elements opted into click tracking by
	// the original marker attribute.
	LegacyClickSelector = "[data-unify-track-clicks]"

	// NamedClickSelector matches elements that declare their own event
	// name.
	NamedClickSelector = "[data-unify-click-event-name]"
)

// Dataset keys, in the camelCase form datasets expose attribute names.
const (
	datasetEventName = "unifyClickEventName"
	datasetLabel     = "unifyLabel"
	datasetExclude   = "unifyExclude"
)

// Dataset key prefixes that mark attributes to forward as event
// properties.
const (
	datasetAttrPrefix      = "unifyAttr"
	datasetEventPropPrefix = "unifyEventProp"
)

const maxLabelLength = 80

// handleClick resolves a click against the configured selector set and
// emits one track event per distinct resolved event name. Elements with
// no resolvable label produce nothing.
func (a *Agent) handleClick(target Element) {
	a.mu.Lock()
	defer a.mu.Unlock()

	element, ok := target.Closest(a.clickSelectors())
	if !ok {
		return
	}
	if !isActionable(element) {
		return
	}

	label := elementLabel(element)
	if label == "" {
		return
	}

	properties := captureProperties(element)
	properties["label"] = label
	properties["wasAutoTracked"] = true

	for _, name := range a.clickEventNames(element) {
		activity.Send(a.ctx, activity.Track{Name: name, Properties: properties})
	}
}

// clickSelectors returns the full selector set: the two attribute
// selectors plus any configured custom selectors.
func (a *Agent) clickSelectors() []string {
	selectors := []string{LegacyClickSelector, NamedClickSelector}
	for _, cs := range a.trackOptions.ClickTrackingSelectors {
		if cs.Selector != "" {
			selectors = append(selectors, cs.Selector)
		}
	}
	return selectors
}

// clickEventNames resolves the distinct event names a click on element
// produces. The element's own declared name wins and suppresses the
// default name from selectors that carry no override, so one click
// never yields both a custom and a default-named event for the same
// match.
func (a *Agent) clickEventNames(element Element) []string {
	var names []string
	seen := map[string]struct{}{}
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	ownName := element.Dataset()[datasetEventName]
	add(ownName)

	for _, cs := range a.trackOptions.ClickTrackingSelectors {
		if cs.Selector == "" || !element.Matches(cs.Selector) {
			continue
		}
		if cs.EventName != "" {
			add(cs.EventName)
		} else if ownName == "" {
			add(ElementClickedEvent)
		}
	}

	if ownName == "" && element.Matches(LegacyClickSelector) {
		add(ElementClickedEvent)
	}

	return names
}

// isActionable reports whether a click on element represents a real
// user action. Hidden, disabled, and explicitly excluded elements do
// not qualify.
func isActionable(element Element) bool {
	if element.StyleHidden() {
		return false
	}
	if _, hidden := element.Attr("hidden"); hidden {
		return false
	}
	if v, ok := element.Attr("aria-hidden"); ok && v == "true" {
		return false
	}
	if element.Disabled() {
		return false
	}
	if v, ok := element.Attr("aria-disabled"); ok && v == "true" {
		return false
	}
	if element.HasClass("disabled") {
		return false
	}
	if _, excluded := element.Dataset()[datasetExclude]; excluded {
		return false
	}
	return true
}

// elementLabel derives a human-readable label for a tracked element.
// First non-empty source wins.
func elementLabel(element Element) string {
	candidates := []string{
		element.Dataset()[datasetLabel],
		element.Text(),
	}
	if v, ok := element.Attr("aria-label"); ok {
		candidates = append(candidates, v)
	}
	candidates = append(candidates, element.LabelledByText(), element.ImageAlt())

	for _, candidate := range candidates {
		label := normalizeWhitespace(candidate)
		if label == "" {
			continue
		}
		if runes := []rune(label); len(runes) > maxLabelLength {
			label = string(runes[:maxLabelLength-1]) + "..."
		}
		return label
	}
	return ""
}

// captureProperties extracts event properties from dataset entries
// carrying one of the forwarding prefixes. The prefix is stripped and
// the remainder is lower-cased at its first character, so
// data-unify-attr-plan-tier arrives as the "planTier" property. Entries
// with empty values are skipped.
func captureProperties(element Element) map[string]any {
	properties := map[string]any{}
	for key, value := range element.Dataset() {
		if value == "" {
			continue
		}
		name := ""
		switch {
		case strings.HasPrefix(key, datasetEventPropPrefix):
			name = strings.TrimPrefix(key, datasetEventPropPrefix)
		case strings.HasPrefix(key, datasetAttrPrefix):
			name = strings.TrimPrefix(key, datasetAttrPrefix)
		}
		if name == "" {
			continue
		}
		properties[lowerFirst(name)] = value
	}
	return properties
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package categorize labels completed call transcripts with topics from
// a fixed taxonomy using an external LLM.
package categorize

import "strings"

// FallbackCategory is assigned when the engine fails or returns nothing
// usable. It is always valid and never sent to the engine as a choice.
const FallbackCategory = "Uncategorised"

// MaxCategories caps how many labels a call may carry.
const MaxCategories = 3

// Taxonomy is the closed set of permissible call topics. Labels outside
// this set are discarded no matter what the engine says. Order here is
// the order shown to the engine.
var Taxonomy = []string{
	"Billing Inquiry",
	"Payment Arrangement",
	"Account Update",
	"Technical Support",
	"Service Outage",
	"New Service Signup",
	"Cancellation Request",
	"Complaint",
	"Refund Request",
	"Appointment Scheduling",
	"General Inquiry",
	"Wrong Number",
}

// canonical maps a lowercased trimmed label to its taxonomy spelling, so
// minor case or whitespace drift in the engine's reply still matches.
var canonical = func() map[string]string {
	m := make(map[string]string, len(Taxonomy))
	for _, label := range Taxonomy {
		m[strings.ToLower(label)] = label
	}
	return m
}()

// Normalize returns the taxonomy spelling of a candidate label, or
// ("", false) when the label is outside the taxonomy.
func Normalize(label string) (string, bool) {
	c, ok := canonical[strings.ToLower(strings.TrimSpace(label))]
	return c, ok
}

// Filter validates candidate labels against the taxonomy, preserving
// order, dropping duplicates, and capping at MaxCategories. An empty
// result means nothing usable came back.
func Filter(candidates []string) []string {
	var out []string
	seen := make(map[string]bool, MaxCategories)
	for _, c := range candidates {
		label, ok := Normalize(c)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
		if len(out) == MaxCategories {
			break
		}
	}
	return out
}

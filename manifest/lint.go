package manifest

import (
	"fmt"
	"strconv"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Lint checks a document's structure without touching a registry: names are
// present, nothing is declared twice, keys are unambiguous, constraints
// parse, and delegate targets exist in the document or its external list.
// Checks that need the registry, like whether a provider name is registered
// or its contract fits, belong to Apply.
//
// Lint reports every finding, not just the first.
func Lint(doc *Document) []error {
	if doc == nil {
		return []error{ErrNilDocument}
	}

	var findings []error
	report := func(format string, args ...any) {
		findings = append(findings, fmt.Errorf(format, args...))
	}

	external := make(map[string]bool)
	for _, name := range doc.External.Aggregates {
		if name == "" {
			report("external aggregates: empty name")
			continue
		}
		if external[name] {
			report("external aggregate %q listed twice", name)
		}
		external[name] = true
	}

	declared := make(map[string]bool)
	for i, ad := range doc.Aggregates {
		if ad.Name == "" {
			report("aggregates[%d]: empty name", i)
			continue
		}
		if declared[ad.Name] {
			report("aggregate %q declared twice", ad.Name)
		}
		if external[ad.Name] {
			report("aggregate %q is also listed as external", ad.Name)
		}
		declared[ad.Name] = true
	}

	for _, ad := range doc.Aggregates {
		lintAggregate(ad, declared, external, report)
	}
	return findings
}

type edgeRef struct {
	capability string
	key        string
}

func lintAggregate(ad AggregateDecl, declared, external map[string]bool, report func(string, ...any)) {
	// Wires and delegates share one edge space per aggregate, so duplicates
	// are tracked across both lists.
	seen := make(map[edgeRef]bool)

	note := func(ref edgeRef, at string) {
		if seen[ref] {
			report("%s: duplicate edge for capability %q (%s)", at, ref.capability, ref.key)
		}
		seen[ref] = true
	}

	for j, w := range ad.Wires {
		at := fmt.Sprintf("aggregate %q wires[%d]", ad.Name, j)
		if w.Capability == "" {
			report("%s: empty capability", at)
		}
		if w.Provider == "" {
			report("%s: empty provider", at)
		}
		key, ok := lintKey(w.Key, w.TypeKey)
		if !ok {
			report("%s: key and typeKey are mutually exclusive", at)
		}
		if w.Constraint != "" {
			if _, err := mmsemver.NewConstraint(w.Constraint); err != nil {
				report("%s: unparsable constraint %q: %v", at, w.Constraint, err)
			}
		}
		if w.Capability != "" && ok {
			note(edgeRef{capability: w.Capability, key: key}, at)
		}
	}

	for j, d := range ad.Delegates {
		at := fmt.Sprintf("aggregate %q delegates[%d]", ad.Name, j)
		if d.Capability == "" {
			report("%s: empty capability", at)
		}
		switch {
		case d.To == "":
			report("%s: empty target", at)
		case d.To == ad.Name:
			report("%s: delegates to itself", at)
		case !declared[d.To] && !external[d.To]:
			report("%s: target %q is not in the document or its external list", at, d.To)
		}
		key, ok := lintKey(d.Key, d.TypeKey)
		if !ok {
			report("%s: key and typeKey are mutually exclusive", at)
		}
		if d.Capability != "" && ok {
			note(edgeRef{capability: d.Capability, key: key}, at)
		}
	}
}

// lintKey folds the two key fields into one comparable description. The
// second result is false when both are set.
func lintKey(key, typeKey string) (string, bool) {
	switch {
	case key != "" && typeKey != "":
		return "", false
	case key != "":
		return "key " + strconv.Quote(key), true
	case typeKey != "":
		return "typeKey " + typeKey, true
	default:
		return "unkeyed", true
	}
}

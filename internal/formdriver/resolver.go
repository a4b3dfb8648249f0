// internal/formdriver/resolver.go
package formdriver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Strategy is one way of locating an element for a candidate selector.
// Kind decides how Query is interpreted at resolution time.
type Strategy struct {
	Name  string
	Kind  StrategyKind
	Query string
}

// StrategyKind enumerates the resolution mechanisms.
type StrategyKind int

const (
	// KindCSS resolves Query as a CSS selector.
	KindCSS StrategyKind = iota
	// KindLabel resolves Query as label text and follows the label's
	// association to its control.
	KindLabel
)

// semanticName matches bare field names like "email" or "first_name" that
// carry no CSS syntax. Only these get the heuristic fallback strategies.
var semanticName = regexp.MustCompile(`^[a-zA-Z][\w-]*$`)

// Strategies expands a candidate selector into its ordered resolution
// strategies. The precedence is fixed: direct match first, then placeholder,
// label, bare name attribute, bare id. Heuristics apply only to bare
// semantic names; anything with CSS syntax is tried verbatim.
func Strategies(candidate string) []Strategy {
	strategies := []Strategy{
		{Name: "direct", Kind: KindCSS, Query: candidate},
	}
	if !semanticName.MatchString(candidate) {
		return strategies
	}
	return append(strategies,
		Strategy{
			Name: "placeholder",
			Kind: KindCSS,
			Query: fmt.Sprintf(`input[placeholder*=%q i], textarea[placeholder*=%q i]`,
				candidate, candidate),
		},
		Strategy{Name: "label", Kind: KindLabel, Query: candidate},
		Strategy{Name: "name", Kind: KindCSS, Query: fmt.Sprintf(`[name=%q]`, candidate)},
		Strategy{Name: "id", Kind: KindCSS, Query: fmt.Sprintf(`[id=%q]`, candidate)},
	)
}

// targetMark is the attribute stamped on a resolved element so follow-up
// interactions address exactly the element the resolver chose.
const targetMark = "data-lf-target"

// TargetSelector addresses the element most recently marked by a resolver hit.
const TargetSelector = `[` + targetMark + `="1"]`

// markUniqueVisibleJS builds an expression that clears stale marks, filters
// the selector's matches down to visible attached elements, and marks the
// element only when the match is unique. It evaluates to the visible count.
func markUniqueVisibleJS(selector string) string {
	return fmt.Sprintf(`(() => {
	const visible = el => {
		const st = window.getComputedStyle(el);
		if (st.display === 'none' || st.visibility === 'hidden') return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	document.querySelectorAll('[%s]').forEach(el => el.removeAttribute('%s'));
	let matches;
	try {
		matches = Array.from(document.querySelectorAll(%q));
	} catch (e) {
		return -1;
	}
	const hits = matches.filter(el => el.isConnected && visible(el));
	if (hits.length === 1) hits[0].setAttribute('%s', '1');
	return hits.length;
})()`, targetMark, targetMark, selector, targetMark)
}

// labelTargetJS builds an expression that finds a label containing the text
// and returns a selector for its associated control, or an empty string.
func labelTargetJS(text string) string {
	return fmt.Sprintf(`(() => {
	const wanted = %q.toLowerCase();
	for (const lb of document.querySelectorAll('label')) {
		if (!(lb.textContent || '').toLowerCase().includes(wanted)) continue;
		const ref = lb.getAttribute('for');
		if (ref) return '[id=' + JSON.stringify(ref) + ']';
		const inner = lb.querySelector('input, select, textarea');
		if (inner && inner.id) return '[id=' + JSON.stringify(inner.id) + ']';
	}
	return '';
})()`, text)
}

// resolve tries the candidate's strategies in order and reports the selector
// of the first one that pins down exactly one visible element. Resolution
// failures never propagate; they simply mean "not found".
func (d *Driver) resolve(ctx context.Context, candidate string) (string, string, bool) {
	for _, st := range Strategies(candidate) {
		query := st.Query
		if st.Kind == KindLabel {
			var derived string
			if err := d.page.Evaluate(ctx, labelTargetJS(st.Query), &derived); err != nil || derived == "" {
				continue
			}
			query = derived
		}

		var count int
		if err := d.page.Evaluate(ctx, markUniqueVisibleJS(query), &count); err != nil {
			continue
		}
		if count == 1 {
			return TargetSelector, st.Name, true
		}
	}
	return "", "", false
}

func normalizeCandidate(candidate string) string {
	return strings.TrimSpace(candidate)
}

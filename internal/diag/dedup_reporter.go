package diag

import "quill/internal/source"

// DedupReporter forwards at most one diagnostic per start position. Parser
// recovery tends to trip over the same token more than once; only the first
// complaint there is useful.
type DedupReporter struct {
	next Reporter
	seen map[source.Span]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[source.Span]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := source.At(primary.File, primary.Start)
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

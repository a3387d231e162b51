package page

// Ref is an implicit page reference found inside a text run. Start and
// End are rune offsets into the run, half-open.
type Ref struct {
	Number int
	Start  int
	End    int
}

// FindPageRefs scans a text run for bare three digit page numbers.
//
// The heuristic is deliberately simple: any run of exactly three digits
// whose value lands in the valid page range is a reference. Digits that
// are part of a longer digit run (years, times, scores) are skipped.
// False positives are possible; keeping the whole heuristic in one
// function lets it be refined without touching the layout code.
func FindPageRefs(runes []rune) []Ref {
	var refs []Ref
	i := 0
	for i < len(runes) {
		if !isDigit(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && isDigit(runes[i]) {
			i++
		}
		if i-start != 3 {
			continue
		}
		n := int(runes[start]-'0')*100 + int(runes[start+1]-'0')*10 + int(runes[start+2]-'0')
		if n < MinNumber || n > MaxNumber {
			continue
		}
		refs = append(refs, Ref{Number: n, Start: start, End: i})
	}
	return refs
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Operations on Slurm node name patterns and sets of node names.
//
// - We can *expand* a pattern or multi-pattern into a set of concrete node names
// - We can *compress* a set of concrete node names into a pattern or multi-pattern
// - We can *split* a multi-pattern into a set of patterns
//
// The following grammar pertains to all of these:
//
//   multi-pattern   ::= pattern ("," pattern)*
//   pattern         ::= pattern-element ("." pattern-element)*
//   pattern-element ::= fragment+
//   fragment        ::= literal | range
//   literal         ::= <longest nonempty string of characters not containing "[" or "," or ".">
//   range           ::= "[" range-elt ("," range-elt)* "]"
//   range-elt       ::= number | number "-" number
//   number          ::= <nonempty string of 0..9, to be interpreted as decimal>
//
//   nodename        ::= node-element ("." node-element)*
//   node-element    ::= literal
//
// Ranges are sets: the bounds of A-B may appear in either order, elements may overlap, and the
// expansion is deduplicated and numerically ascending.  When every number written in a range has
// the same digit count the expansion preserves that count by zero-padding, so "[01-03]" yields
// 01, 02, 03 while "[8-10]" yields 8, 9, 10.
//
// The expansion of the result of compression of a set of node names H must yield exactly the set
// H.  Compression does not have a unique result and is not required to be optimal, but
// compressing the list [y,x] and the list [x,y] must yield the same result modulo the ordering of
// the names in the result set.

package hostglob

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SplitMultiPattern takes a <multi-pattern> according to the grammar above and returns the list
// of individual <pattern>s in it.  This requires a bit of logic because a pattern may contain a
// range that contains a comma.

func SplitMultiPattern(s string) ([]string, error) {
	patterns := make([]string, 0)
	if s == "" {
		return patterns, nil
	}
	insideBrackets := false
	start := -1
	for ix, c := range s {
		switch {
		case c == '[':
			if insideBrackets {
				return nil, errors.New("Illegal pattern: nested brackets")
			}
			insideBrackets = true
		case c == ']':
			if !insideBrackets {
				return nil, errors.New("Illegal pattern: unmatched end bracket")
			}
			insideBrackets = false
		case c == ',' && !insideBrackets:
			if start == -1 {
				return nil, errors.New("Illegal pattern: Empty node name")
			}
			patterns = append(patterns, s[start:ix])
			start = -1
		default:
			if start == -1 {
				start = ix
			}
		}
	}
	if insideBrackets {
		return nil, errors.New("Illegal pattern: Missing end bracket")
	}
	if start == len(s) || start == -1 {
		return nil, errors.New("Illegal pattern: Empty node name")
	}
	return append(patterns, s[start:]), nil
}

// ExpandMulti expands every pattern of a <multi-pattern> and catenates the expansions.

func ExpandMulti(s string) ([]string, error) {
	patterns, err := SplitMultiPattern(s)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		expanded, err := ExpandPattern(p)
		if err != nil {
			return nil, err
		}
		names = append(names, expanded...)
	}
	return names, nil
}

// ExpandPattern takes a single <pattern> from the grammar above and expands it.

func ExpandPattern(s string) ([]string, error) {
	head, tail, hasTail := strings.Cut(s, ".")
	headExpansions, err := expandPatternElement(head)
	if err != nil {
		return nil, err
	}
	if !hasTail {
		return headExpansions, nil
	}

	tailExpansions, err := ExpandPattern(tail)
	if err != nil {
		return nil, err
	}
	expansions := make([]string, 0, len(headExpansions)*len(tailExpansions))
	for _, h := range headExpansions {
		for _, t := range tailExpansions {
			expansions = append(expansions, h+"."+t)
		}
	}
	return expansions, nil
}

// ExpandRange expands the body of a <range>, without the brackets: "0-2,07" yields
// ["0", "1", "2", "7"].  Padding and ordering are as described in the package comment.

func ExpandRange(s string) ([]string, error) {
	r := strings.NewReader(s)
	nodes, err := expandRangeBody(r)
	if err != nil {
		return nil, err
	}
	if c := getc(r); c != 0 {
		return nil, fmt.Errorf("Unexpected character %q in range", c)
	}
	return nodes, nil
}

var noMoreFragments = errors.New("No more fragments")

func expandPatternElement(s string) ([]string, error) {
	r := strings.NewReader(s)
	fragments := make([]any, 0)
	for {
		fragment, err := parseFragment(r)
		if err != nil {
			if err == noMoreFragments {
				break
			}
			return nil, err
		}
		fragments = append(fragments, fragment)
	}
	if len(fragments) == 0 {
		return nil, errors.New("Empty element")
	}
	tails := []string{""}
	for i := len(fragments) - 1; i >= 0; i-- {
		switch f := fragments[i].(type) {
		case string:
			xs := make([]string, 0, len(tails))
			for _, t := range tails {
				xs = append(xs, f+t)
			}
			tails = xs
		case []string:
			xs := make([]string, 0, len(tails)*len(f))
			for _, t := range tails {
				for _, n := range f {
					xs = append(xs, n+t)
				}
			}
			tails = xs
		default:
			panic("Unexpected fragment type")
		}
	}
	return tails, nil
}

func parseFragment(r *strings.Reader) (any, error) {
	switch c := getc(r); c {
	case 0:
		return nil, noMoreFragments
	case '[':
		nodes, err := expandRangeBody(r)
		if err != nil {
			return nil, err
		}
		if !eatc(r, ']') {
			return nil, errors.New("Unexpected character in range")
		}
		return nodes, nil
	case ',':
		return nil, errors.New("Unexpected ','")
	case '.':
		return nil, errors.New("Unexpected '.'")
	default:
		literal := string(c)
		for {
			c := getc(r)
			if c == 0 || c == '[' || c == ',' || c == '.' {
				ungetc(r, c)
				break
			}
			literal = literal + string(c)
		}
		return literal, nil
	}
}

// Parses range elements off r up to (but not including) a ']' or EOF and computes the expansion.
// The numbers of the elements form a set, and the bounds of an element may be written in either
// order.  The result is ascending; it is zero-padded to the common width when every number read
// has the same width, otherwise unpadded.

func expandRangeBody(r io.RuneScanner) ([]string, error) {
	seen := make(map[int]bool)
	width := -1
	uniform := true
	needOne := true
	for {
		if !needOne {
			if eatc(r, ',') {
				needOne = true
				continue
			}
			break
		}
		needOne = false
		n, w, err := readNumber(r)
		if err != nil {
			return nil, err
		}
		m, mw := n, w
		if eatc(r, '-') {
			m, mw, err = readNumber(r)
			if err != nil {
				return nil, err
			}
		}
		if width == -1 {
			width = w
		}
		if w != width || mw != width {
			uniform = false
		}
		if n > m {
			n, m = m, n
		}
		for ; n <= m; n++ {
			seen[n] = true
		}
	}

	nodes := make([]int, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)
	result := make([]string, len(nodes))
	for i, n := range nodes {
		if uniform {
			result[i] = fmt.Sprintf("%0*d", width, n)
		} else {
			result[i] = strconv.Itoa(n)
		}
	}
	return result, nil
}

// Reads a number and reports the number of digits it was written with.

func readNumber(r io.RuneScanner) (int, int, error) {
	cs := ""
	for {
		c := getc(r)
		if c < '0' || c > '9' {
			ungetc(r, c)
			break
		}
		cs = cs + string(c)
	}
	if cs == "" {
		return 0, 0, errors.New("Expected number")
	}
	n, err := strconv.Atoi(cs)
	return n, len(cs), err
}

func eatc(r io.RuneScanner, x rune) bool {
	c := getc(r)
	if c == x {
		return true
	}
	ungetc(r, c)
	return false
}

func getc(r io.RuneScanner) rune {
	c, _, err := r.ReadRune()
	if err == io.EOF {
		return 0
	}
	return c
}

func ungetc(r io.RuneScanner, c rune) {
	if c != 0 {
		r.UnreadRune()
	}
}

// CompressHostnames abbreviates a list of valid <nodename>s using <pattern> syntax where
// possible.  For node names of the form `a.b.c...` nothing in the `b.c...` portion is
// compressed, and within the `a` portion only the rightmost digit string is.  This yields good
// results in general.

var withDigitsRe = regexp.MustCompile(`^(.*?)(\d+)(\D*)$`)

func CompressHostnames(hosts []string) []string {
	// Suffixes maps the `b.c...` portion to the `a` portions of the names.
	suffixes := make(map[string][]string)
	for _, h := range hosts {
		before, after, _ := strings.Cut(h, ".")
		suffixes[after] = append(suffixes[after], before)
	}

	result := make([]string, 0)
	for suffix, firstelts := range suffixes {
		same := make(map[string][]int)
		for _, elt := range firstelts {
			ms := withDigitsRe.FindStringSubmatch(elt)
			if ms == nil {
				result = pushHostName(result, elt, suffix)
				continue
			}
			n, err := strconv.ParseInt(ms[2], 10, 64)
			if err != nil {
				result = pushHostName(result, elt, suffix)
				continue
			}
			name := ms[1] + "," + ms[3]
			same[name] = append(same[name], int(n))
		}
		for k, v := range same {
			a, b, _ := strings.Cut(k, ",")
			result = pushHostName(result, a+compressRange(v)+b, suffix)
		}
	}

	return result
}

func pushHostName(result []string, elt, suffix string) []string {
	if suffix != "" {
		return append(result, elt+"."+suffix)
	}
	return append(result, elt)
}

func compressRange(xs []int) string {
	if len(xs) == 1 {
		return strconv.Itoa(xs[0])
	}
	sort.Ints(xs)
	s := ""
	for i := 0; i < len(xs); {
		first := xs[i]
		prev := first
		i++
		for i < len(xs) && xs[i] == prev+1 {
			prev = xs[i]
			i++
		}
		if s != "" {
			s += ","
		}
		if first != prev {
			s += fmt.Sprintf("%d-%d", first, prev)
		} else {
			s += strconv.Itoa(first)
		}
	}
	return "[" + s + "]"
}

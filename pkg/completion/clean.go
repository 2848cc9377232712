package completion

import "strings"

const fence = "```"

// Clean strips surrounding whitespace and a single markdown code fence from
// generated markup. The opening fence line may carry a language tag
// ("```mermaid"). Everything between the fences is kept verbatim.
func Clean(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, fence) {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, fence)
		}
	}

	s = strings.TrimRightFunc(s, isSpace)
	s = strings.TrimSuffix(s, fence)

	return strings.TrimSpace(s)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

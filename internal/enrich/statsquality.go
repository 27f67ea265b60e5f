package enrich

import "regexp"

// Statistical-reporting signals looked for in abstract text. Each class
// found contributes one point, capped at 3.
var (
	pValueRe     = regexp.MustCompile(`(?i)\bp\s*[<=≤]\s*0?\.\d+`)
	confIntRe    = regexp.MustCompile(`(?i)\b(9[05]%\s*CI|confidence interval)`)
	sampleSizeRe = regexp.MustCompile(`(?i)\bn\s*=\s*\d+`)
)

// ScoreStatsQuality rates how thoroughly an abstract reports statistics,
// 0 (no signals) through 3. The score is a coarse triage signal, not a
// methodological judgment.
func ScoreStatsQuality(abstract string) int {
	if abstract == "" {
		return 0
	}
	score := 0
	if pValueRe.MatchString(abstract) {
		score++
	}
	if confIntRe.MatchString(abstract) {
		score++
	}
	if sampleSizeRe.MatchString(abstract) {
		score++
	}
	return score
}

package summary

import "strings"

// Lens is a fixed categorical emphasis used to group sources within an
// event summary.
type Lens string

const (
	LensPolicy         Lens = "Policy / Official Statements"
	LensEconomic       Lens = "Economic Impact"
	LensPublicReaction Lens = "Public Reaction / Social Impact"
	LensRegional       Lens = "Regional or Community Focus"
	LensInvestigative  Lens = "Investigative / Accountability Focus"
	LensStraight       Lens = "Straight Reporting"
)

var (
	policyKeywords = []string{
		"said", "statement", "announced", "according", "attributed",
		"blamed", "explained", "minister", "government", "agency",
		"commission", "operator", "spokesperson", "niso",
	}
	economicKeywords = []string{
		"price", "market", "inflation", "naira", "economy", "economic",
		"business", "investors", "trade", "tariff",
	}
	investigativeKeywords = []string{
		"investigation", "probe", "audit", "corruption", "fraud", "accountability",
	}
	publicReactionKeywords = []string{
		"protest", "outrage", "anger", "residents", "students", "citizens", "social media",
	}
	regionalKeywords = []string{
		"state", "community", "local", "lagos", "abuja", "kano", "rivers", "kaduna", "enugu",
	}
)

// InferLens classifies combined headline+excerpt text into one lens by
// keyword hit count. Used only for single-source events. Ties break by
// precedence: Policy > Economic > Investigative > Public Reaction >
// Regional; an all-zero score falls back to Straight Reporting.
func InferLens(items []InputItem) Lens {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.Headline)
		b.WriteByte(' ')
		b.WriteString(it.Excerpt)
		b.WriteByte(' ')
	}
	text := strings.ToLower(b.String())

	count := func(keywords []string) int {
		n := 0
		for _, k := range keywords {
			if strings.Contains(text, k) {
				n++
			}
		}
		return n
	}

	pairs := []struct {
		lens  Lens
		score int
	}{
		{LensPolicy, count(policyKeywords)},
		{LensEconomic, count(economicKeywords)},
		{LensInvestigative, count(investigativeKeywords)},
		{LensPublicReaction, count(publicReactionKeywords)},
		{LensRegional, count(regionalKeywords)},
	}

	best := LensStraight
	bestScore := 0
	for _, p := range pairs {
		if p.score > bestScore {
			best = p.lens
			bestScore = p.score
		}
	}
	return best
}

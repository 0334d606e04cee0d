package summary

import (
	"fmt"
	"strings"
)

// PromptVersion tags stored outputs with the prompt format that produced
// them. Bump when the prompt below changes shape.
const PromptVersion = "v2"

// InputItem is one headline fed into summary generation.
type InputItem struct {
	SourceName string
	Headline   string
	Excerpt    string
	Timestamp  string
}

// BuildPrompt renders the neutral aggregation prompt for a set of event
// items. The output format it demands is what Canonicalize expects.
func BuildPrompt(items []InputItem) string {
	uniqueSources := uniqueSourceNames(items)

	formatted := make([]string, len(items))
	for i, it := range items {
		formatted[i] = strings.Join([]string{
			"Source name: " + it.SourceName,
			"Headline: " + it.Headline,
			"Short excerpt: " + it.Excerpt,
			"Timestamp: " + it.Timestamp,
		}, "\n")
	}

	return fmt.Sprintf(`SYSTEM / DEVELOPER PROMPT

You are a neutral news aggregation assistant for a Nigerian-focused news product.
Your role is to organize and compress news, not to interpret, judge, speculate, or persuade.

Hard rules:
- Do NOT add facts that are not present in the input text.
- Do NOT express opinions, emotions, or conclusions.
- Do NOT speculate on motives or intent.
- Do NOT label sources as biased, good, bad, or misleading.
- Use clear, simple, factual language.

Output rules (STRICT):
- Output ONLY the sections listed in "FINAL OUTPUT FORMAT".
- Do NOT include any extra headings like "Task", "Event Identification", "YES/NO", or commentary.
- If unsure, keep outputs short and neutral.

Event Title rules:
- Neutral and durable (not sensational)
- Prefer including WHO + ACTION when possible
- Concise (ideally 6-14 words)

Event Summary rules:
- 1-2 sentences
- Include only who/what/when/where (if available)
- Prefer including a time anchor (day/date) when timestamps allow it

Lenses rules:
- Use ONLY these lenses:
  - Policy / Official Statements
  - Economic Impact
  - Public Reaction / Social Impact
  - Regional or Community Focus
  - Investigative / Accountability Focus
  - Straight Reporting

CRITICAL MVP RULE: A single source can only appear in ONE lens per event.
If an article touches multiple angles: pick the dominant emphasis; ignore secondary signals.
Omit empty lenses.

Explanation rule:
- Always include one neutral sentence describing what the grouping reflects.

Coverage Note rule:
- If unique sources < 2, include Coverage Note exactly as specified.

FINAL OUTPUT FORMAT (STRICT)
Event Title:
<text>

Event Summary:
<text>

Lenses:
<grouped sources>

Explanation:
<one neutral sentence>

Coverage Note:
<include only when unique sources < 2>

Coverage Note (exact text):
%s

INPUT ITEMS:

Unique sources: %d

%s`, DefaultCoverageNote, len(uniqueSources), strings.Join(formatted, "\n\n---\n\n"))
}

func uniqueSourceNames(items []InputItem) []string {
	seen := make(map[string]bool)
	var names []string
	for _, it := range items {
		name := strings.TrimSpace(it.SourceName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

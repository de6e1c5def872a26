package repair

import (
	"strings"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
)

// Heuristic maps keyword fragments found in a question's tags or topic to
// the instruments that usually govern them.
type Heuristic struct {
	Keywords  []string
	Citations []questionbank.Citation
}

// Matches reports whether any keyword occurs in any of the terms.
func (h Heuristic) Matches(terms []string) bool {
	for _, term := range terms {
		term = strings.ToLower(term)
		for _, kw := range h.Keywords {
			if strings.Contains(term, kw) {
				return true
			}
		}
	}
	return false
}

func cite(instrument, c string) questionbank.Citation {
	return questionbank.Citation{Instrument: instrument, Cite: c}
}

// DefaultHeuristics is ordered from most to least specific.
var DefaultHeuristics = []Heuristic{
	{
		Keywords:  []string{"exclusion", "admissib", "confession", "oppression", "unfair"},
		Citations: []questionbank.Citation{cite("PACE 1984", "s.76"), cite("PACE 1984", "s.78")},
	},
	{
		Keywords:  []string{"silence", "inference"},
		Citations: []questionbank.Citation{cite("CJPOA 1994", "s.34"), cite("CJPOA 1994", "s.36"), cite("CJPOA 1994", "s.37")},
	},
	{
		Keywords:  []string{"disclosure"},
		Citations: []questionbank.Citation{cite("CPIA 1996", "s.3"), cite("CPIA 1996", "s.7A")},
	},
	{
		Keywords:  []string{"bail"},
		Citations: []questionbank.Citation{cite("Bail Act 1976", "s.4"), cite("PACE 1984", "s.37")},
	},
	{
		Keywords:  []string{"identification", "parade"},
		Citations: []questionbank.Citation{cite("PACE Code D", "para 3.12"), cite("PACE Code D", "Annex A")},
	},
	{
		Keywords:  []string{"legal-advice", "legal advice", "consultation", "solicitor"},
		Citations: []questionbank.Citation{cite("PACE 1984", "s.58"), cite("PACE Code C", "para 6.1")},
	},
	{
		Keywords:  []string{"interview", "caution"},
		Citations: []questionbank.Citation{cite("PACE Code C", "para 10.1"), cite("PACE Code C", "para 11.1A")},
	},
	{
		Keywords:  []string{"detention", "custody", "review"},
		Citations: []questionbank.Citation{cite("PACE 1984", "s.40"), cite("PACE Code C", "para 15.1")},
	},
	{
		Keywords:  []string{"search", "stop"},
		Citations: []questionbank.Citation{cite("PACE 1984", "s.1"), cite("PACE Code A", "para 2.2")},
	},
	{
		Keywords:  []string{"arrest"},
		Citations: []questionbank.Citation{cite("PACE 1984", "s.24"), cite("PACE Code G", "para 2.1")},
	},
	{
		Keywords:  []string{"conflict", "confidential", "conduct", "ethic"},
		Citations: []questionbank.Citation{cite("SRA Code of Conduct", "para 6.2"), cite("SRA Principles", "Principle 7")},
	},
	{
		Keywords:  []string{"funding", "contract", "claim", "fee"},
		Citations: []questionbank.Citation{cite("Standard Crime Contract", "Part B, para 9.1")},
	},
}

// genericFallback is used when nothing more specific applies.
var genericFallback = []string{"PACE 1984", "PACE Code C"}

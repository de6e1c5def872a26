package generator

import (
	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// CitationsPerQuestion matches the auditor's citation minimum.
const CitationsPerQuestion = 2

// fallbackInstruments is the rotation used when a criterion declares no
// expected authorities: the primary statute and the detention code.
var fallbackInstruments = []string{"PACE 1984", "PACE Code C"}

// Citations returns the two citations for the ordinal-th generated question.
// Expected authorities are cycled starting at ordinal; a criterion with a
// single authority is topped up from the fallback rotation.
func Citations(c standards.Criterion, ordinal int) []questionbank.Citation {
	var auths []questionbank.Citation
	for _, a := range c.ExpectedAuthorities {
		cit := questionbank.Citation{Instrument: a.Instrument, Cite: a.Cite}
		if cit.Valid() {
			auths = append(auths, cit)
		}
	}

	out := make([]questionbank.Citation, 0, CitationsPerQuestion)
	if len(auths) > 0 {
		for k := 0; k < CitationsPerQuestion && k < len(auths); k++ {
			out = append(out, auths[(ordinal+k)%len(auths)])
		}
	}
	for _, inst := range fallbackInstruments {
		if len(out) == CitationsPerQuestion {
			break
		}
		fb := Placeholder(inst, c.Label)
		if !hasInstrument(out, inst) {
			out = append(out, fb)
		}
	}
	return out
}

// Placeholder builds a citation whose cite needs human verification.
func Placeholder(instrument, subject string) questionbank.Citation {
	if subject == "" {
		subject = "this point"
	}
	return questionbank.Citation{
		Instrument: instrument,
		Cite:       questionbank.PlaceholderPrefix + " provision of " + instrument + " on " + subject,
	}
}

func hasInstrument(cs []questionbank.Citation, instrument string) bool {
	for _, c := range cs {
		if c.Instrument == instrument {
			return true
		}
	}
	return false
}

// Package standards loads the hierarchical syllabus (parts, units, outcomes,
// criteria) that question coverage is measured against.
package standards

// Document is the root of the standards tree.
type Document struct {
	Parts []Part `json:"parts"`
}

// Part is the top-level grouping of units.
type Part struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Units []Unit `json:"units"`
}

// Unit groups learning outcomes.
type Unit struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome groups assessment criteria.
type Outcome struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Criteria []Criterion `json:"criteria"`
}

// Criterion is a leaf assessment standard. Questions cover a criterion when
// they share at least one tag with it.
type Criterion struct {
	ID                  string      `json:"id"`
	Label               string      `json:"label"`
	Summary             string      `json:"summary"`
	Tags                []string    `json:"tags"`
	ExpectedAuthorities []Authority `json:"expectedAuthorities"`
}

// Authority is a legal instrument and pinpoint cite a criterion expects
// questions to rely on.
type Authority struct {
	Instrument string `json:"instrument"`
	Cite       string `json:"cite"`
	URL        string `json:"url,omitempty"`
}

// Instruments returns the distinct expected instruments in declaration order.
func (c Criterion) Instruments() []string {
	seen := make(map[string]bool, len(c.ExpectedAuthorities))
	out := make([]string, 0, len(c.ExpectedAuthorities))
	for _, a := range c.ExpectedAuthorities {
		if a.Instrument == "" || seen[a.Instrument] {
			continue
		}
		seen[a.Instrument] = true
		out = append(out, a.Instrument)
	}
	return out
}

// Criteria returns every criterion in depth-first document order.
func (d *Document) Criteria() []Criterion {
	var out []Criterion
	for _, p := range d.Parts {
		for _, u := range p.Units {
			for _, o := range u.Outcomes {
				out = append(out, o.Criteria...)
			}
		}
	}
	return out
}

// Criterion looks up a criterion by ID.
func (d *Document) Criterion(id string) (Criterion, bool) {
	for _, c := range d.Criteria() {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}

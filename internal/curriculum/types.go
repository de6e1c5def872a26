package curriculum

// Topic represents a syllabus topic loaded from YAML. Questions reference
// topics by ID.
type Topic struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Keywords    []string    `yaml:"keywords"`
	Authorities []Authority `yaml:"authorities"`
}

// Authority is a legal authority associated with a topic as a whole.
type Authority struct {
	Instrument string `yaml:"instrument"`
	Cite       string `yaml:"cite"`
}

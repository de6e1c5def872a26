package generator

import "strings"

// vars fills template placeholders.
type vars struct {
	authority string
	topic     string
	question  string
	scenario  string
}

// render substitutes {scenario} first so scenario text may itself use the
// other placeholders.
func (v vars) render(tmpl string) string {
	s := strings.ReplaceAll(tmpl, "{scenario}", v.scenario)
	return strings.NewReplacer(
		"{authority}", v.authority,
		"{topic}", v.topic,
		"{question}", v.question,
	).Replace(s)
}

func (v vars) renderAll(tmpls []string) []string {
	out := make([]string, len(tmpls))
	for i, t := range tmpls {
		out[i] = v.render(t)
	}
	return out
}

var mcqStems = []string{
	"Under {authority}, which statement best reflects the position on {topic}?",
	"Which of the following is correct in relation to {question}?",
	"You are advising at the police station on {topic}. Which option is consistent with {authority}?",
	"Which statement about {topic} would a competent police station representative accept?",
	"Applying {authority}, which of the following is accurate?",
}

var scenarioStems = []string{
	"{scenario} Applying {authority}, what is the correct position?",
	"{scenario} Which response best protects the client's position on {topic}?",
	"{scenario} Which advice is consistent with {question}?",
	"{scenario} What should you tell the custody officer?",
}

var scenarios = []string{
	"Your client has been arrested and brought to the police station.",
	"During a custody interview the officer raises a point about {topic}.",
	"The custody officer tells you a decision on {topic} has already been made.",
	"Pre-interview disclosure is minimal and your client asks what to do.",
	"Your client is vulnerable and the appropriate adult has not yet arrived.",
}

var shortStems = []string{
	"Explain the key requirements of {question}, referring to {authority}.",
	"Outline how {authority} applies to {topic}.",
	"Summarise the representative's responsibilities concerning {topic}.",
}

var shortKeyPoints = []string{
	"Identifies the governing provision: {authority}",
	"States the requirement: {question}",
	"Applies the requirement to the client's situation",
}

var nextStepStems = []string{
	"{scenario} What is the next step you should take, and why?",
	"{scenario} What do you do next in relation to {topic}?",
}

var nextStepKeyPoints = []string{
	"Identifies the next procedural step under {authority}",
	"Explains how the step protects the client on {topic}",
	"Records the advice and the reasons on file",
}

const correctTemplate = "The position set out in {authority}: {question}"

const explanationTemplate = "{authority} governs this point: {question}."

// distractors are deliberately generic. The auditor's boilerplate check
// flags them once enough generated questions share them.
var distractors = []string{
	"The officer's discretion overrides the statutory requirement",
	"No action is needed until the client is charged",
	"The requirement applies only if the client requests it in writing",
}

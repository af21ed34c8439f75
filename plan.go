package alfred

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed templates/planning_prompt.md
var planningPromptTemplate string

var planningTmpl = template.Must(template.New("planning").Parse(planningPromptTemplate))

type planningTemplateData struct {
	Step  int
	Tools []ToolSpec
}

// isPlanningStep reports whether a planning prompt is added at step.
// Planning happens on the first step and then every interval steps.
func isPlanningStep(step, interval int) bool {
	return interval > 0 && step%interval == 0
}

func buildPlanningPrompt(step int, tools []ToolSpec) (Text, error) {
	var buf bytes.Buffer
	if err := planningTmpl.Execute(&buf, planningTemplateData{Step: step, Tools: tools}); err != nil {
		return "", goerr.Wrap(err, "failed to render planning prompt", goerr.V("step", step))
	}
	return Text(strings.TrimSpace(buf.String())), nil
}

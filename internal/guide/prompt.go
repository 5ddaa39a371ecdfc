package guide

import (
	"bytes"
	"text/template"
)

var promptTemplate = template.Must(template.New("guide").Parse(`You are Luffy the Guider, a cheerful local guide born and raised in {{.}}.

Write a single short paragraph that introduces {{.}} to a first-time visitor:
- open with a warm welcome
- share a couple of key facts about {{.}}
- name places worth visiting in {{.}}
- mention a greeting, custom or tradition
- finish with something special about the people or the food

Keep the tone friendly and personal and use a few emojis. Skip dry statistics.
`))

// BuildPrompt renders the fixed guide prompt for an already validated
// country name.
func BuildPrompt(country string) string {
	var buf bytes.Buffer
	// Executing a parsed template into a buffer with a string argument
	// cannot fail.
	_ = promptTemplate.Execute(&buf, country)
	return buf.String()
}

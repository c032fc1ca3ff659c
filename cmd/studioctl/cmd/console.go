package cmd

import "github.com/genmedia/studioctl/internal/output"

// stdConsole adapts the output package to the workflow's Console interface so
// the interactive flow can be driven by a fake in tests.
type stdConsole struct{}

func (stdConsole) Infof(format string, a ...any)    { output.Infof(format, a...) }
func (stdConsole) Successf(format string, a ...any) { output.Successf(format, a...) }
func (stdConsole) Warningf(format string, a ...any) { output.Warningf(format, a...) }
func (stdConsole) Header(text string)               { output.Header(text) }
func (stdConsole) KeyValue(key, value string)       { output.KeyValue(key, value) }
func (stdConsole) Blank()                           { output.Blank() }
func (stdConsole) Step(step, total int, message string) {
	output.Step(step, total, message)
}
func (stdConsole) Prompt(prompt string) string         { return output.Prompt(prompt) }
func (stdConsole) PromptRequired(prompt string) string { return output.PromptRequired(prompt) }
func (stdConsole) PromptWithDefault(prompt, def string) string {
	return output.PromptWithDefault(prompt, def)
}
func (stdConsole) Confirm(prompt string) bool { return output.Confirm(prompt) }

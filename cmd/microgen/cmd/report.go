package cmd

import (
	"strings"

	"github.com/Aman-CERP/microgen/internal/output"
	"github.com/Aman-CERP/microgen/internal/scaffold"
)

// printResult reports one module's outcome. Manual patch instructions are
// printed as code blocks so they can be copied.
func printResult(out *output.Writer, res *scaffold.Result) {
	if res == nil {
		return
	}
	out.Successf("Module %s: %d file(s) written, %d skipped", res.Module, len(res.Created)+len(res.Overwritten), len(res.Skipped))
	for _, p := range res.Created {
		out.Item("created", p)
	}
	for _, p := range res.Overwritten {
		out.Item("overwritten", p)
	}
	for _, p := range res.Updated {
		out.Item("updated", p)
	}
	for _, p := range res.Skipped {
		out.Item("skipped", p)
	}

	for _, w := range res.Warnings {
		out.Warning(w)
	}
	if len(res.Instructions) > 0 {
		out.Newline()
		out.Header("Next steps")
		for _, line := range res.Instructions {
			if strings.Contains(line, "\n") {
				out.Code(line)
				continue
			}
			out.Item("-", line)
		}
	}
	out.Newline()
}

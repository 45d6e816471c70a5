package assemble

import (
	"fmt"
	"strings"

	"lorebook/internal/model"
)

// RenderText renders the assembled context as the textual block injected
// ahead of the generation request: world-info entries first, then fallback
// documents, each under its title.
func RenderText(ctx *model.AssembledContext) string {
	if len(ctx.WorldInfo) == 0 && len(ctx.Rag) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[World Info: %s]\n", ctx.Scope))

	for _, e := range ctx.WorldInfo {
		b.WriteString("\n## ")
		b.WriteString(e.Title)
		b.WriteString("\n")
		b.WriteString(e.Text)
		b.WriteString("\n")
	}

	if len(ctx.Rag) > 0 {
		b.WriteString(fmt.Sprintf("\n[Reference Documents: %s]\n", ctx.Scope))
		for _, d := range ctx.Rag {
			b.WriteString("\n## ")
			b.WriteString(d.Title)
			b.WriteString("\n")
			b.WriteString(d.Text)
			b.WriteString("\n")
		}
	}

	return b.String()
}

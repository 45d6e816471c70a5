package export

import (
	"fmt"
	"strings"

	"lorebook/internal/model"
	"lorebook/internal/output"
)

// Markdown renders an assembled context as a human-readable report: the
// selected entries and documents with their scores and tiers, the fallback
// decision, and the drop accounting.
func Markdown(ctx *model.AssembledContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Assembled Context: %s\n\n", ctx.Scope)
	fmt.Fprintf(&b, "- Run: `%s`\n", ctx.RunID)
	fmt.Fprintf(&b, "- Tokens: %d / %d\n", ctx.UsedTokens, ctx.TokenBudget)
	fmt.Fprintf(&b, "- Fallback: policy=%s ran=%v confidence=%s threshold=%s\n\n",
		ctx.Fallback.Policy, ctx.Fallback.Ran,
		output.FormatFloat(ctx.Fallback.Confidence), output.FormatFloat(ctx.Fallback.Threshold))

	if len(ctx.WorldInfo) > 0 {
		b.WriteString("## World Info\n\n")
		b.WriteString("| uid | title | score | tier | tokens |\n")
		b.WriteString("|----:|-------|------:|------|-------:|\n")
		for _, e := range ctx.WorldInfo {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %d |\n",
				e.UID, e.Title, output.FormatFloat(e.Score), e.Tier, e.Tokens)
		}
		b.WriteByte('\n')
	}

	if len(ctx.Rag) > 0 {
		b.WriteString("## Reference Documents\n\n")
		b.WriteString("| uid | chunk | title | score | tokens |\n")
		b.WriteString("|----:|-------|-------|------:|-------:|\n")
		for _, d := range ctx.Rag {
			chunk := d.ChunkID
			if chunk == "" {
				chunk = "-"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %d |\n",
				d.UID, chunk, d.Title, output.FormatFloat(d.Score), d.Tokens)
		}
		b.WriteByte('\n')
	}

	writeDrops(&b, "Dropped Entries", ctx.Entries)
	writeDrops(&b, "Dropped Documents", ctx.Documents)

	if len(ctx.BodyLiftedUids) > 0 {
		fmt.Fprintf(&b, "Lifted to full body: %s\n", joinUids(ctx.BodyLiftedUids))
	}

	return b.String()
}

func writeDrops(b *strings.Builder, title string, drops model.DropAccounting) {
	if len(drops.DroppedByBudget) == 0 && len(drops.DroppedByLimit) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(drops.DroppedByBudget) > 0 {
		fmt.Fprintf(b, "- by budget: %s\n", joinUids(drops.DroppedByBudget))
	}
	if len(drops.DroppedByLimit) > 0 {
		fmt.Fprintf(b, "- by count limit: %s\n", joinUids(drops.DroppedByLimit))
	}
	b.WriteByte('\n')
}

func joinUids(uids []int) string {
	parts := make([]string, len(uids))
	for i, uid := range uids {
		parts[i] = fmt.Sprintf("%d", uid)
	}
	return strings.Join(parts, ", ")
}

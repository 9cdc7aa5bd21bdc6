package modelref

import (
	"fmt"
	"io"
	"strings"
)

// DefaultReportName returns the report file name used when none is given.
func DefaultReportName(cmpID string) string {
	return "pr_diff_" + cmpID + ".txt"
}

// WriteReport renders the human-readable summary of res to w.
// Models are listed in name order within each section.
func WriteReport(w io.Writer, cmpID string, res DiffResult) error {
	_, err := io.WriteString(w, FormatReport(cmpID, res))
	return err
}

// WriteReportFile writes the report to path atomically.
func WriteReportFile(path, cmpID string, res DiffResult) error {
	return atomicWrite(path, []byte(FormatReport(cmpID, res)))
}

// FormatReport returns the text WriteReport writes.
func FormatReport(cmpID string, res DiffResult) string {
	if !res.HasChanges() {
		return fmt.Sprintf("No changes found between %s", cmpID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Models added from %s:\n", cmpID)
	for _, name := range res.AddedNames() {
		m := res.Added[name]
		fmt.Fprintf(&b, "  + %s v%s (%s)\n", name, m.Version, m.Baseline)
		fmt.Fprintf(&b, "    %s\n", m.Description)
		fmt.Fprintf(&b, "    nsfw: %t\n", m.NSFW)
		if m.Inpainting {
			fmt.Fprintf(&b, "    Inpainting: %t\n", m.Inpainting)
		}
		fmt.Fprintf(&b, "    %s\n", m.Homepage)
		fmt.Fprintf(&b, "    %s\n", formatTags(m.Tags))
		b.WriteString("\n")
	}

	b.WriteString("Models removed:\n")
	for _, name := range res.RemovedNames() {
		fmt.Fprintf(&b, "  - %s\n", name)
	}

	b.WriteString("Models changed:\n")
	for _, name := range res.ChangedNames() {
		fmt.Fprintf(&b, "  ~ %s\n", name)
	}

	return b.String()
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	return "[" + strings.Join(tags, ", ") + "]"
}

package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"

	"github.com/jbweber/ironvirt/internal/image"
	"github.com/jbweber/ironvirt/internal/vm"
)

// TableFormatter formats listings as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool

	now func() time.Time
}

// FormatInstances formats instances as a table.
func (f *TableFormatter) FormatInstances(instances []vm.InstanceStatus) (string, error) {
	if len(instances) == 0 {
		return "No instances found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "ID\tSTATUS")
	}
	for _, inst := range instances {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", inst.ID, inst.Status)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatImages formats images as a table. Digests are shown in full since
// they are the handle passed back to other commands.
func (f *TableFormatter) FormatImages(images []image.Info) (string, error) {
	if len(images) == 0 {
		return "No images found\n", nil
	}

	now := time.Now
	if f.now != nil {
		now = f.now
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "DIGEST\tSIZE\tAGE")
	}
	for _, img := range images {
		size := units.BytesSize(float64(img.SizeBytes))

		age := "-"
		if !img.ModTime.IsZero() {
			age = formatAge(now().Sub(img.ModTime))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", img.Digest, size, age)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// formatAge formats a duration as a human-readable age string.
// Examples: "5s", "2m", "3h", "4d", "2w", "1y"
func formatAge(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}

	weeks := days / 7
	if weeks < 8 {
		return fmt.Sprintf("%dw", weeks)
	}

	years := days / 365
	if years > 0 {
		return fmt.Sprintf("%dy", years)
	}

	return fmt.Sprintf("%dd", days)
}

// Package report renders query results for the CLI, as colorized text
// or JSON lines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/kristianoye/klf-yap/internal/finder"
	"github.com/kristianoye/klf-yap/pkg/models"
)

// Renderer writes entries and a trailing summary to an output stream.
type Renderer interface {
	Entry(entry *models.Entry, err error) error
	Summary(stats finder.Stats) error
}

// NewRenderer selects a renderer by format name; anything that is not
// "json" renders as text.
func NewRenderer(format string, out io.Writer, noColor bool) Renderer {
	if format == "json" {
		return &jsonRenderer{out: out}
	}
	return &textRenderer{out: out, noColor: noColor}
}

// FormatDuration formats a duration with at most two decimal places.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins*60)
	return fmt.Sprintf("%dm%.2fs", mins, secs)
}

type textRenderer struct {
	out     io.Writer
	noColor bool
}

func (r *textRenderer) Entry(entry *models.Entry, err error) error {
	dim := color.New(color.Faint)
	errC := color.New(color.FgRed)
	dirC := color.New(color.FgCyan)
	linkC := color.New(color.FgMagenta)
	if r.noColor {
		for _, c := range []*color.Color{dim, errC, dirC, linkC} {
			c.DisableColor()
		}
	}

	switch {
	case err != nil:
		_, werr := fmt.Fprintf(r.out, "%s  %s\n",
			errC.Sprint("✗ "+entry.FullPath), dim.Sprint(err.Error()))
		return werr
	case entry.IsSymbolicLink():
		_, werr := fmt.Fprintf(r.out, "%s %s %s\n",
			linkC.Sprint(entry.FullPath), dim.Sprint("->"), entry.LinkTargetName)
		return werr
	case entry.IsDirectory():
		_, werr := fmt.Fprintln(r.out, dirC.Sprint(entry.FullPath+"/"))
		return werr
	default:
		_, werr := fmt.Fprintf(r.out, "%s  %s\n",
			entry.FullPath, dim.Sprintf("%s bytes", entry.Stat.Size.String()))
		return werr
	}
}

func (r *textRenderer) Summary(stats finder.Stats) error {
	dim := color.New(color.Faint)
	if r.noColor {
		dim.DisableColor()
	}
	_, err := fmt.Fprintln(r.out, dim.Sprintf("%d matched (%d files, %d dirs, %d errors) in %s",
		stats.Matched, stats.TotalFiles, stats.TotalDirs, stats.Placeholders,
		FormatDuration(stats.Duration)))
	return err
}

// jsonEntry is the wire shape of one result line.
type jsonEntry struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Extension string `json:"extension,omitempty"`
	Type      string `json:"type"`
	Size      string `json:"size"`
	Depth     int    `json:"depth"`
	ModTime   string `json:"mod_time,omitempty"`
	Target    string `json:"link_target,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
	Error     string `json:"error,omitempty"`
}

type jsonRenderer struct {
	out io.Writer
}

func (r *jsonRenderer) Entry(entry *models.Entry, err error) error {
	line := jsonEntry{
		Path:      entry.FullPath,
		Name:      entry.Name,
		Extension: entry.Extension,
		Type:      entry.Type.String(),
		Size:      entry.Stat.Size.String(),
		Depth:     entry.Depth,
		Target:    entry.LinkTargetName,
		Hidden:    entry.Hidden,
	}
	if !entry.Stat.Times.Modify.IsZero() {
		line.ModTime = entry.Stat.Times.Modify.Format(time.RFC3339)
	}
	if err != nil {
		line.Error = err.Error()
	}
	data, merr := json.Marshal(line)
	if merr != nil {
		return merr
	}
	_, werr := fmt.Fprintln(r.out, string(data))
	return werr
}

func (r *jsonRenderer) Summary(stats finder.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintln(r.out, string(data))
	return werr
}

// Package slides turns a line-oriented outline produced by the model
// into a PowerPoint deck.
package slides

import "strings"

const (
	slidePrefix = "SLIDE:"
	pointPrefix = "POINT:"
)

// Slide is one parsed outline record.
type Slide struct {
	Title   string
	Bullets []string
}

// Parse tokenizes a SLIDE:/POINT: outline. A SLIDE: line opens a new
// record; each POINT: line appends a bullet to the open record. A
// bullet arriving before any title has nowhere to go: it is dropped and
// counted in the second return value so the caller can log it. Blank
// and unrecognized lines are ignored.
func Parse(text string) ([]Slide, int) {
	var out []Slide
	orphans := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, slidePrefix):
			title := strings.TrimSpace(strings.TrimPrefix(line, slidePrefix))
			out = append(out, Slide{Title: title})
		case strings.HasPrefix(line, pointPrefix):
			if len(out) == 0 {
				orphans++
				continue
			}
			point := strings.TrimSpace(strings.TrimPrefix(line, pointPrefix))
			last := &out[len(out)-1]
			last.Bullets = append(last.Bullets, point)
		}
	}

	return out, orphans
}

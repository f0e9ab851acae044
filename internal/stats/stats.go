// Package stats tracks per-category usage counters and samples host
// telemetry for the admin dashboard and the downloadable report.
package stats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
)

// Usage categories. Counters reset only on process restart.
const (
	CategoryTextGen     = "text_gen"
	CategoryAudioGen    = "audio_gen"
	CategoryTranscribe  = "transcribe"
	CategoryPDFGen      = "pdf_gen"
	CategoryChatMsgs    = "chat_msgs"
	CategoryCodeReview  = "code_review"
	CategoryQuizGen     = "quiz_gen"
	CategoryFileConv    = "file_conv"
	CategoryCompression = "compression"
	CategoryVidAudio    = "vid_audio"
)

// categories fixes the report ordering.
var categories = []string{
	CategoryTextGen,
	CategoryAudioGen,
	CategoryTranscribe,
	CategoryPDFGen,
	CategoryChatMsgs,
	CategoryCodeReview,
	CategoryQuizGen,
	CategoryFileConv,
	CategoryCompression,
	CategoryVidAudio,
}

// Telemetry is one CPU/RAM utilization sample.
type Telemetry struct {
	CPU float64 `json:"cpu"`
	RAM float64 `json:"ram"`
}

// Collector is a synchronized set of usage counters. Counters are
// request-accepted counters: handlers increment at entry, whether or
// not the downstream call later succeeds.
type Collector struct {
	mu     sync.Mutex
	counts map[string]int64
	logger *logrus.Logger
}

func NewCollector(logger *logrus.Logger) *Collector {
	counts := make(map[string]int64, len(categories))
	for _, cat := range categories {
		counts[cat] = 0
	}
	return &Collector{
		counts: counts,
		logger: logger,
	}
}

// Increment bumps a recognized category by one. Unrecognized
// categories are ignored.
func (c *Collector) Increment(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.counts[category]; !ok {
		return
	}
	c.counts[category]++
}

// Get returns a single counter value. Unrecognized categories read as
// zero.
func (c *Collector) Get(category string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[category]
}

// Snapshot returns a copy of every counter.
func (c *Collector) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Total returns the sum of all counters.
func (c *Collector) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, v := range c.counts {
		total += v
	}
	return total
}

// Sample measures current CPU and RAM utilization. The CPU sample
// blocks for 100ms so the reading is a real interval measurement
// rather than 0.0%. Failures degrade to zeros.
func (c *Collector) Sample() Telemetry {
	var t Telemetry

	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		t.CPU = percents[0]
	} else if err != nil {
		c.logger.WithError(err).Debug("cpu sample failed")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		t.RAM = vm.UsedPercent
	} else {
		c.logger.WithError(err).Debug("memory sample failed")
	}

	return t
}

// Report renders the fixed-format plaintext system report.
func (c *Collector) Report(now time.Time, t Telemetry) string {
	snapshot := c.Snapshot()

	lines := []string{
		"========================================",
		"       AI WORKSPACE SYSTEM REPORT       ",
		"========================================",
		fmt.Sprintf("Generated: %s", now.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Server CPU: %.1f%%", t.CPU),
		fmt.Sprintf("Server RAM: %.1f%%", t.RAM),
		"",
		"----------- FEATURE USAGE ------------",
	}

	var total int64
	for _, cat := range categories {
		total += snapshot[cat]
		lines = append(lines, fmt.Sprintf("%-15s : %d", cat, snapshot[cat]))
	}

	lines = append(lines,
		"--------------------------------------",
		fmt.Sprintf("TOTAL OPERATIONS : %d", total),
		"========================================",
	)

	return strings.Join(lines, "\n")
}

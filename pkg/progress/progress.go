// Package progress reports how far a lattice sweep has got.
package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// Reporter receives progress updates. done counts finished cells out of
// total; the final call has done == total.
type Reporter interface {
	Report(done, total int)
}

// Nop discards every update.
type Nop struct{}

// Report does nothing.
func (Nop) Report(int, int) {}

// barLength is the number of blocks in a full bar.
const barLength = 20

// Bar draws a carriage-return progress bar:
//
//	Exporting: [##########----------] 50.0%
//
// ending with " DONE" and a newline once the sweep completes. It only
// redraws when the rendered line changes.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	title string
	last  string
}

// NewBar creates a bar writing to w.
func NewBar(w io.Writer, title string) *Bar {
	return &Bar{w: w, title: title}
}

// Report redraws the bar for done out of total cells.
func (b *Bar) Report(done, total int) {
	line := Render(b.title, fraction(done, total))

	b.mu.Lock()
	defer b.mu.Unlock()
	if line == b.last {
		return
	}
	b.last = line
	fmt.Fprint(b.w, line)
}

// Render formats one bar line for completion p in [0, 1].
func Render(title string, p float64) string {
	block := int(math.RoundToEven(barLength * p))
	block = max(0, min(barLength, block))
	msg := fmt.Sprintf("\r%s: [%s%s] %s%%", title,
		strings.Repeat("#", block), strings.Repeat("-", barLength-block),
		formatPercent(p*100))
	if p >= 1 {
		msg += " DONE\r\n"
	}
	return msg
}

// formatPercent rounds to two decimals and drops trailing zeros, keeping
// at least one decimal: 50.0, 12.5, 33.33.
func formatPercent(pct float64) string {
	s := fmt.Sprintf("%.2f", math.Round(pct*100)/100)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func fraction(done, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(done) / float64(total)
}

// Log reports through a structured logger every time completion crosses
// another tenth, and once more at the end.
type Log struct {
	mu     sync.Mutex
	logger *slog.Logger
	msg    string
	next   int // next tenth to report
}

// NewLog creates a reporter logging msg at info level.
func NewLog(logger *slog.Logger, msg string) *Log {
	return &Log{logger: logger, msg: msg, next: 1}
}

// Report logs once per completed tenth of total.
func (l *Log) Report(done, total int) {
	p := fraction(done, total)
	tenth := int(math.Floor(p * 10))

	l.mu.Lock()
	if tenth < l.next {
		l.mu.Unlock()
		return
	}
	l.next = tenth + 1
	l.mu.Unlock()

	l.logger.LogAttrs(context.Background(), slog.LevelInfo, l.msg,
		slog.Int("done", done),
		slog.Int("total", total),
		slog.String("percent", formatPercent(p*100)),
	)
}

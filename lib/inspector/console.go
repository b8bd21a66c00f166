// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Console renders records as one styled line each:
//
//	15:04:05.000 INFO  surface launched command=/usr/bin/app pid=4242
//
// Lines longer than the terminal are truncated rather than wrapped so
// one noisy record cannot scroll the rest off screen.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	width  func() int
	styles consoleStyles
	open   bool
}

type consoleStyles struct {
	timestamp lipgloss.Style
	levels    map[slog.Level]lipgloss.Style
	key       lipgloss.Style
	banner    lipgloss.Style
}

// NewConsole returns a Console on file. The colour profile comes from
// the terminal and environment (NO_COLOR, COLORTERM) and the width is
// re-read on every record, so resizing the terminal takes effect
// immediately. A file that is not a terminal gets plain text and no
// truncation.
func NewConsole(file *os.File) *Console {
	profile := termenv.NewOutput(file).EnvColorProfile()
	fd := int(file.Fd())
	width := func() int {
		if !term.IsTerminal(fd) {
			return 0
		}
		columns, _, err := term.GetSize(fd)
		if err != nil {
			return 0
		}
		return columns
	}
	return newConsole(file, profile, width)
}

// NewConsoleWriter returns a Console on an arbitrary writer with a
// fixed colour profile and width. A width of zero disables truncation.
func NewConsoleWriter(w io.Writer, profile termenv.Profile, width int) *Console {
	return newConsole(w, profile, func() int { return width })
}

func newConsole(w io.Writer, profile termenv.Profile, width func() int) *Console {
	// lipgloss re-detects the profile from the writer unless it is
	// set explicitly on the renderer.
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	level := func(color string) lipgloss.Style {
		return renderer.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	}
	return &Console{
		out:   w,
		width: width,
		styles: consoleStyles{
			timestamp: renderer.NewStyle().Foreground(lipgloss.Color("8")),
			levels: map[slog.Level]lipgloss.Style{
				slog.LevelDebug: level("12"),
				slog.LevelInfo:  level("10"),
				slog.LevelWarn:  level("11"),
				slog.LevelError: level("9"),
			},
			key:    renderer.NewStyle().Foreground(lipgloss.Color("6")),
			banner: renderer.NewStyle().Foreground(lipgloss.Color("13")).Italic(true),
		},
	}
}

// Show renders one record.
func (c *Console) Show(record Record) error {
	line := c.format(record)
	if width := c.width(); width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, line+"\n")
	return err
}

// Open marks the console attached and draws a banner.
func (c *Console) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return fmt.Errorf("inspector console already open")
	}
	c.open = true
	_, err := io.WriteString(c.out, c.styles.banner.Render("── inspector attached ──")+"\n")
	return err
}

// Close marks the console detached. Records shown afterwards are still
// rendered: the console is also the sink's Console target.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return fmt.Errorf("inspector console not open")
	}
	c.open = false
	_, err := io.WriteString(c.out, c.styles.banner.Render("── inspector detached ──")+"\n")
	return err
}

func (c *Console) format(record Record) string {
	var builder strings.Builder
	builder.WriteString(c.styles.timestamp.Render(record.Time.Format("15:04:05.000")))
	builder.WriteByte(' ')
	builder.WriteString(c.levelStyle(record.Level).Render(fmt.Sprintf("%-5s", record.Level.String())))
	builder.WriteByte(' ')
	builder.WriteString(record.Message)
	for _, attr := range record.Attrs {
		builder.WriteByte(' ')
		builder.WriteString(c.styles.key.Render(attr.Key + "="))
		fmt.Fprintf(&builder, "%v", attr.Value)
	}
	return builder.String()
}

// levelStyle picks the style of the nearest standard level at or below
// level, so custom levels such as DEBUG+2 inherit a colour.
func (c *Console) levelStyle(level slog.Level) lipgloss.Style {
	for _, standard := range []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo} {
		if level >= standard {
			return c.styles.levels[standard]
		}
	}
	return c.styles.levels[slog.LevelDebug]
}

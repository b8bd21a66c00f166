// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package autostart

import (
	"fmt"
	"strings"
)

// NewXDG returns a Registrar writing <identifier>.desktop files into
// directory.
func NewXDG(directory string) Registrar {
	return &fileRegistrar{directory: directory, extension: ".desktop", render: renderDesktopEntry}
}

func renderDesktopEntry(entry Entry) []byte {
	var builder strings.Builder
	builder.WriteString("[Desktop Entry]\n")
	builder.WriteString("Type=Application\n")
	builder.WriteString("Version=1.0\n")
	fmt.Fprintf(&builder, "Name=%s\n", escapeDesktopValue(entry.Name))
	fmt.Fprintf(&builder, "Comment=%s startup script\n", escapeDesktopValue(entry.Name))
	fmt.Fprintf(&builder, "Exec=%s\n", desktopExec(entry.Exec, entry.Args))
	builder.WriteString("StartupNotify=false\n")
	builder.WriteString("Terminal=false\n")
	return []byte(builder.String())
}

// escapeDesktopValue applies the string escapes of the desktop entry
// format.
func escapeDesktopValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return replacer.Replace(value)
}

// desktopExec renders an Exec key. Arguments with reserved characters
// are double-quoted, and inside quotes the characters " ` $ \ are
// backslash-escaped. A literal % is doubled so it is not read as a
// field code. The whole value then gets the ordinary string escapes,
// which doubles every backslash again.
func desktopExec(executable string, args []string) string {
	fields := make([]string, 0, len(args)+1)
	for _, argument := range append([]string{executable}, args...) {
		fields = append(fields, quoteExecArgument(argument))
	}
	return escapeDesktopValue(strings.Join(fields, " "))
}

func quoteExecArgument(argument string) string {
	argument = strings.ReplaceAll(argument, "%", "%%")
	if argument != "" && !strings.ContainsAny(argument, " \t\n\"'\\><~|&;$*?#()`") {
		return argument
	}
	var builder strings.Builder
	builder.WriteByte('"')
	for _, character := range argument {
		switch character {
		case '"', '`', '$', '\\':
			builder.WriteByte('\\')
		}
		builder.WriteRune(character)
	}
	builder.WriteByte('"')
	return builder.String()
}

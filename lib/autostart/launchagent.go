// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package autostart

import (
	"bytes"
	"encoding/xml"
)

// NewLaunchAgent returns a Registrar writing <identifier>.plist
// LaunchAgent definitions into directory.
func NewLaunchAgent(directory string) Registrar {
	return &fileRegistrar{directory: directory, extension: ".plist", render: renderLaunchAgent}
}

func renderLaunchAgent(entry Entry) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(xml.Header)
	buffer.WriteString(`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n")
	buffer.WriteString(`<plist version="1.0">` + "\n<dict>\n")

	plistKey(&buffer, "Label")
	plistString(&buffer, "  ", entry.Identifier)

	plistKey(&buffer, "ProgramArguments")
	buffer.WriteString("  <array>\n")
	plistString(&buffer, "    ", entry.Exec)
	for _, argument := range entry.Args {
		plistString(&buffer, "    ", argument)
	}
	buffer.WriteString("  </array>\n")

	plistKey(&buffer, "RunAtLoad")
	buffer.WriteString("  <true/>\n")

	buffer.WriteString("</dict>\n</plist>\n")
	return buffer.Bytes()
}

func plistKey(buffer *bytes.Buffer, key string) {
	buffer.WriteString("  <key>")
	xml.EscapeText(buffer, []byte(key))
	buffer.WriteString("</key>\n")
}

func plistString(buffer *bytes.Buffer, indent, value string) {
	buffer.WriteString(indent + "<string>")
	xml.EscapeText(buffer, []byte(value))
	buffer.WriteString("</string>\n")
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/deskboot/cmd/deskboot/cli"
	"github.com/bureau-foundation/deskboot/lib/config"
	"github.com/bureau-foundation/deskboot/lib/featuregate"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/workaround"
)

type probeParams struct {
	configPath string
	buildMode  string
	policy     string
	format     string
}

// probeReport is what the probe command prints.
type probeReport struct {
	DisplayProtocol string            `json:"display_protocol"`
	GPUVendor       string            `json:"gpu_vendor"`
	Virtualization  string            `json:"virtualization"`
	BuildMode       string            `json:"build_mode"`
	Platform        string            `json:"platform"`
	OS              string            `json:"os"`
	KernelRelease   string            `json:"kernel_release,omitempty"`
	Policy          string            `json:"policy"`
	Overrides       []string          `json:"overrides"`
	Environment     map[string]string `json:"environment"`
	Subsystems      []string          `json:"subsystems"`
}

func probeCommand() *cli.Command {
	var params probeParams
	return &cli.Command{
		Name:    "probe",
		Summary: "Print host signals and the renderer overrides they call for",
		Description: `Probe the host the way "run" does and print the result without
changing anything: no environment is written and nothing is launched.`,
		Examples: []cli.Example{
			{Description: "Show the overrides the unconditional policy would apply", Command: "deskboot probe --policy unconditional"},
			{Description: "Machine-readable output", Command: "deskboot probe --format json"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("probe", pflag.ContinueOnError)
			flagSet.StringVar(&params.configPath, "config", "", "config file supplying the workaround policy")
			flagSet.StringVar(&params.buildMode, "build-mode", "", "override the compiled build mode (debug or release)")
			flagSet.StringVar(&params.policy, "policy", "", "workaround policy (conditional or unconditional)")
			flagSet.StringVar(&params.format, "format", "text", "output format (text or json)")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			report, err := probe(params, hostprobe.NewProber())
			if err != nil {
				return err
			}
			return writeProbeReport(os.Stdout, report, params.format, term.IsTerminal(int(os.Stdout.Fd())))
		},
	}
}

func probe(params probeParams, prober *hostprobe.Prober) (probeReport, error) {
	mode, err := resolveBuildMode(params.buildMode)
	if err != nil {
		return probeReport{}, err
	}
	cfg, err := config.Load(params.configPath, mode)
	if err != nil {
		return probeReport{}, err
	}
	if params.policy != "" {
		cfg.WorkaroundPolicy = params.policy
	}
	policy, err := cfg.Policy()
	if err != nil {
		return probeReport{}, err
	}
	return buildProbeReport(prober.Probe(mode), policy), nil
}

func buildProbeReport(signals hostprobe.HostSignals, policy workaround.Policy) probeReport {
	overrides := workaround.Compute(policy, signals)
	report := probeReport{
		DisplayProtocol: signals.DisplayProtocol.String(),
		GPUVendor:       signals.GPUVendor.String(),
		Virtualization:  signals.Virtualization.String(),
		BuildMode:       signals.BuildMode.String(),
		Platform:        signals.Platform.String(),
		OS:              signals.OS,
		KernelRelease:   signals.KernelRelease,
		Policy:          policy.String(),
		Overrides:       []string{},
		Environment:     workaround.RendererFlags(overrides),
		Subsystems:      []string{},
	}
	for _, override := range overrides.Sorted() {
		report.Overrides = append(report.Overrides, string(override))
	}
	for _, subsystem := range featuregate.Select(signals.BuildMode, signals.Platform).Subsystems() {
		report.Subsystems = append(report.Subsystems, subsystem.String())
	}
	return report
}

func writeProbeReport(w io.Writer, report probeReport, format string, terminal bool) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding probe report: %w", err)
		}
		data = append(data, '\n')
		if terminal {
			return quick.Highlight(w, string(data), "json", "terminal256", "monokai")
		}
		_, err = w.Write(data)
		return err
	case "text":
		profile := termenv.Ascii
		if terminal {
			profile = termenv.ANSI256
		}
		_, err := io.WriteString(w, renderProbeTable(report, profile)+"\n")
		return err
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

// renderProbeTable lays the report out as a two-column table.
func renderProbeTable(report probeReport, profile termenv.Profile) string {
	renderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	header := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	key := renderer.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	value := renderer.NewStyle().Padding(0, 1)

	rows := [][]string{
		{"display protocol", report.DisplayProtocol},
		{"gpu vendor", report.GPUVendor},
		{"virtualization", report.Virtualization},
		{"build mode", report.BuildMode},
		{"platform", report.Platform},
		{"os", report.OS},
	}
	if report.KernelRelease != "" {
		rows = append(rows, []string{"kernel", report.KernelRelease})
	}
	rows = append(rows, []string{"policy", report.Policy})

	variables := make([]string, 0, len(report.Environment))
	for variable := range report.Environment {
		variables = append(variables, variable)
	}
	sort.Strings(variables)
	if len(variables) == 0 {
		rows = append(rows, []string{"environment", "(none)"})
	}
	for _, variable := range variables {
		rows = append(rows, []string{"environment", variable + "=" + report.Environment[variable]})
	}

	subsystems := "(none)"
	if len(report.Subsystems) > 0 {
		subsystems = fmt.Sprint(report.Subsystems)
	}
	rows = append(rows, []string{"auxiliaries", subsystems})

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(renderer.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("SIGNAL", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, column int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case column == 0:
				return key
			default:
				return value
			}
		}).
		String()
}

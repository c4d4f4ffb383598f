package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/toolwrap/internal/template"
)

var commandsCmd = &cobra.Command{
	Use:          "commands",
	Short:        "List the available command templates",
	GroupID:      groupCore,
	Args:         cobra.NoArgs,
	RunE:         runCommands,
	SilenceUsage: true,
}

func runCommands(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	registry := template.NewRegistry(cfg.Tool.Commands)

	tool := cfg.Tool.Path
	if tool == "" {
		tool = colorDim + "(tool.path not set)" + colorReset
	}
	fmt.Fprintf(out, "%sCommands for%s %s\n", colorBold, colorReset, tool)
	fmt.Fprintln(out, strings.Repeat("-", 40))

	width := 0
	for _, name := range registry.Names() {
		width = max(width, len(name))
	}

	for _, name := range registry.Names() {
		t, err := registry.Resolve(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s%-*s%s  %s %s(%d args)%s\n",
			colorCyan, width, name, colorReset, t.Format, colorDim, t.Placeholders, colorReset)
	}
	return nil
}

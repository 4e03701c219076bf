package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/service"
)

// memory [date]
var memoryCmd = &cobra.Command{
	Use:   "memory [YYYY-MM-DD]",
	Short: "Render a journal day (latest when no date is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMemory,
}

var (
	memoryStyle string
	memoryWidth int
	memoryRaw   bool
)

func init() {
	memoryCmd.Flags().StringVar(&memoryStyle, "style", "dark", "glamour style (dark, light, ascii, notty)")
	memoryCmd.Flags().IntVar(&memoryWidth, "width", 100, "word wrap width")
	memoryCmd.Flags().BoolVar(&memoryRaw, "raw", false, "print the markdown unrendered")
	rootCmd.AddCommand(memoryCmd)
}

func runMemory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mem := service.NewMemoryService(openSource(cfg))

	var (
		entry model.MemoryEntry
		ok    bool
	)
	if len(args) == 1 {
		entry, ok = mem.ByDate(args[0])
	} else {
		entry, ok = mem.Latest()
	}
	if !ok {
		return fmt.Errorf("no journal entry found")
	}

	out := cmd.OutOrStdout()
	if memoryRaw {
		fmt.Fprint(out, entry.Content)
		return nil
	}
	fmt.Fprint(out, renderMarkdown(entry.Content, memoryStyle, memoryWidth))
	return nil
}

// renderMarkdown falls back to the plain text when glamour can't render.
func renderMarkdown(content, style string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

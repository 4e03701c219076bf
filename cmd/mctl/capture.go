package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tony-c3a/tony-mission-control/internal/service"
)

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Work with the ideas log",
}

// idea add
var ideaAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Append an idea to ideas.jsonl",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIdeaAdd,
}

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Work with the todo files",
}

// todo add
var todoAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Append a todo to the inbox",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoAdd,
}

var (
	ideaTags    []string
	ideaContext string
	todoTags    []string
)

func init() {
	ideaAddCmd.Flags().StringArrayVarP(&ideaTags, "tag", "t", nil, "tag to attach (repeatable)")
	ideaAddCmd.Flags().StringVar(&ideaContext, "context", "", "where the idea came from")
	todoAddCmd.Flags().StringArrayVarP(&todoTags, "tag", "t", nil, "tag to attach (repeatable)")

	rootCmd.AddCommand(ideaCmd, todoCmd)
	ideaCmd.AddCommand(ideaAddCmd)
	todoCmd.AddCommand(todoAddCmd)
}

func runIdeaAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in := service.NewIdea{Idea: strings.Join(args, " "), Tags: ideaTags, Source: "cli"}
	if ideaContext != "" {
		in.Context = &ideaContext
	}
	idea, err := service.NewIdeaService(openSource(cfg)).Add(in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added idea %s\n", idea.ID)
	return nil
}

func runTodoAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	todo, err := service.NewTodoService(openSource(cfg)).Add(strings.Join(args, " "), todoTags)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added todo %q\n", todo.Title)
	return nil
}

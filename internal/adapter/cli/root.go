package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"deltalint/internal/domain"
	"deltalint/internal/usecase/correlate"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Checker defines the dependency required to run the check command.
type Checker interface {
	Run(ctx context.Context, req correlate.Request) (domain.CorrelationResult, error)
}

// Renderer writes a correlation result in one output format.
type Renderer interface {
	Render(out io.Writer, oldRev, newRev string, result domain.CorrelationResult) error
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Checker       Checker
	Renderers     map[string]Renderer
	Args          Arguments
	DefaultBase   string
	DefaultFormat string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "deltalint",
		Short: "Report lint findings newly introduced between two revisions",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(checkCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func checkCommand(deps Dependencies) *cobra.Command {
	var baseRev string
	var targetRev string
	var scope string
	var excludeExts []string
	var allowOversize bool
	var ignoreWhitespace bool
	var format string

	cmd := &cobra.Command{
		Use:   "check [target]",
		Short: "Correlate lint reports across a revision range",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				targetRev = args[0]
			}
			if targetRev == "" {
				targetRev = "HEAD"
			}

			resolvedFormat := resolveFormat(format, deps.DefaultFormat)
			renderer, ok := deps.Renderers[resolvedFormat]
			if !ok {
				return fmt.Errorf("unknown output format %q (have: %s)", resolvedFormat, strings.Join(formatNames(deps.Renderers), ", "))
			}

			result, err := deps.Checker.Run(cmd.Context(), correlate.Request{
				OldRevision:        baseRev,
				NewRevision:        targetRev,
				Scope:              scope,
				ExcludedExtensions: excludeExts,
				AllowOversize:      allowOversize,
				IgnoreWhitespace:   ignoreWhitespace,
			})
			if err != nil {
				return err
			}

			return renderer.Render(cmd.OutOrStdout(), baseRev, targetRev, result)
		},
	}

	defaultBase := deps.DefaultBase
	if defaultBase == "" {
		defaultBase = "main"
	}
	cmd.Flags().StringVar(&baseRev, "base", defaultBase, "Base revision to diff against")
	cmd.Flags().StringVar(&targetRev, "target", "", "Target revision to check (overrides positional)")
	cmd.Flags().StringVar(&scope, "scope", "", "Restrict the diff to a path within the repository")
	cmd.Flags().StringSliceVar(&excludeExts, "exclude-ext", []string{}, "File extensions to skip (e.g. .md,.txt)")
	cmd.Flags().BoolVar(&allowOversize, "allow-oversize", false, "Process the diff even when it exceeds the size guard")
	cmd.Flags().BoolVar(&ignoreWhitespace, "ignore-whitespace", false, "Produce the diff ignoring whitespace-only changes")
	cmd.Flags().StringVar(&format, "format", "", "Output format: text, markdown, json, or sarif")

	return cmd
}

// resolveFormat returns the flag value if non-empty, otherwise the default.
func resolveFormat(override, defaultValue string) string {
	if override != "" {
		return strings.ToLower(override)
	}
	if defaultValue != "" {
		return strings.ToLower(defaultValue)
	}
	return "text"
}

func formatNames(renderers map[string]Renderer) []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	return names
}

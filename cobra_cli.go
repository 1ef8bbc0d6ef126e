package main

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	cobradoc "github.com/spf13/cobra/doc"

	"github.com/agentflare-ai/pydocmd/internal/config"
	"github.com/agentflare-ai/pydocmd/internal/generate"
)

const rootLongDesc = `
pydocmd renders the API documentation of Python packages as Markdown.

Each module named on the command line is located on the search path, parsed
without being executed, and written together with all of its public
submodules as a mirrored tree of documents: a package becomes
<name>/index.md, a plain module <name>.md. Docstrings in Google, NumPy,
reStructuredText and Epydoc style are recognised, members link to their
declarations across documents, and problems with individual modules are
reported without stopping the run.

Settings can also come from a .pydocmd.yaml (or .toml/.json) file, the
[tool.pydocmd] table of pyproject.toml, or PYDOCMD_* environment variables.
`

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	app := &cliApp{stdout: stdout, stderr: stderr}
	cmd := &cobra.Command{
		Use:           "pydocmd [flags] MODULE...",
		Short:         "Render Python API documentation as Markdown",
		Long:          strings.TrimSpace(rootLongDesc),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.DisableAutoGenTag = true
	cmd.Version = Version
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)
	cmd.CompletionOptions.DisableDefaultCmd = true

	config.RegisterFlags(cmd.Flags())
	_ = cmd.MarkFlagFilename("config", "yaml", "yml", "toml", "json")
	_ = cmd.MarkFlagDirname("output-dir")
	_ = cmd.MarkFlagDirname("search-path")
	_ = cmd.RegisterFlagCompletionFunc("docstring-style", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "google", "numpy", "rest", "epydoc"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("log-format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return app.execute(ctx, cmd.Flags(), args)
	}

	cmd.AddCommand(newCompletionCmd(cmd))
	cmd.AddCommand(newDocsCmd(cmd))
	return cmd
}

// shells maps the completion argument to the cobra generator for it.
var shells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletion(w) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletion(w)
	},
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	names := make([]string, 0, len(shells))
	for name := range shells {
		names = append(names, name)
	}
	sort.Strings(names)
	return &cobra.Command{
		Use:   "completion SHELL",
		Short: "Generate shell completion scripts",
		Long: "Print the completion script for SHELL (" + strings.Join(names, ", ") + `).

  source <(pydocmd completion bash)`,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:             names,
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		DisableAutoGenTag:     true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shells[args[0]](root, cmd.OutOrStdout())
		},
	}
}

// newDocsCmd documents the command line itself, one Markdown file per
// command, through the same writers as the API documents.
func newDocsCmd(root *cobra.Command) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "gen-docs DIR",
		Short: "Generate Markdown reference docs for the CLI",
		Long: `Write one Markdown file per pydocmd command to DIR ("-" prints them to
stdout). Existing files are kept unless --overwrite is given.`,
		Args:              cobra.ExactArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w generate.Writer = &generate.DirWriter{Root: args[0], Overwrite: overwrite}
			if args[0] == "-" {
				w = &generate.StreamWriter{W: cmd.OutOrStdout()}
			}
			return writeCommandDocs(root, w)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace files that already exist")
	return cmd
}

// writeCommandDocs writes the page of c and of every available subcommand.
// Pages are named after the command path, the way cobra links them.
func writeCommandDocs(c *cobra.Command, w generate.Writer) error {
	var buf bytes.Buffer
	if err := cobradoc.GenMarkdownCustom(c, &buf, func(name string) string { return name }); err != nil {
		return errors.Wrapf(err, "document %s", c.CommandPath())
	}
	if err := w.Write(strings.ReplaceAll(c.CommandPath(), " ", "_")+".md", buf.Bytes()); err != nil {
		return err
	}
	for _, sub := range c.Commands() {
		if !sub.IsAvailableCommand() || sub.IsAdditionalHelpTopicCommand() {
			continue
		}
		if err := writeCommandDocs(sub, w); err != nil {
			return err
		}
	}
	return nil
}

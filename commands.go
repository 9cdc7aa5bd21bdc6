package modelref

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Haidra-Org/AI-Horde-image-model-reference/internal/config"
	"github.com/Haidra-Org/AI-Horde-image-model-reference/internal/prompt"
	"github.com/Haidra-Org/AI-Horde-image-model-reference/internal/ui"
)

// Output formats accepted by --output.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// CommandConfig holds the dependencies of the command tree.
// Zero values select the defaults.
type CommandConfig struct {
	// HTTPClient is used for URL probes and artifact downloads.
	HTTPClient HTTPClient

	// Prober replaces network probing in check-urls.
	Prober Prober

	// Prompter answers the edit forms. Defaults to terminal prompts.
	Prompter Prompter
}

// cliState is shared by the subcommands of one invocation.
type cliState struct {
	cfg CommandConfig

	configFile string
	jsonOutput bool
	quiet      bool
	verbose    bool

	settings config.Settings
	logger   *slog.Logger
}

// keyPolicy returns the configured key policy. Settings are validated on load.
func (s *cliState) keyPolicy() KeyPolicy {
	p, _ := ParseKeyPolicy(s.settings.KeyPolicy)
	return p
}

// format returns the effective output format.
func (s *cliState) format() string {
	if s.jsonOutput {
		return OutputJSON
	}
	return s.settings.Output
}

// NewCommand creates the Cobra command tree for the reference tooling.
//
// Commands provided:
//   - diff --pr-path <file> --main-path <file> [--pr-hash --main-hash --output-dir --info-file-out]
//   - validate <file> [--strict]
//   - check-urls <file> [--interval --timeout --marker --gated-host]
//   - edit add|update|remove <file>
//
// Global flags: --config, --output, --json, --quiet, --verbose, --key-policy
func NewCommand(cfg CommandConfig) *cobra.Command {
	state := &cliState{cfg: cfg}

	cmd := &cobra.Command{
		Use:   "horde-modelref",
		Short: "Diff and validate the image model reference",
		Long:  "Compare two versions of the image model reference, validate its structure and check that every download URL resolves.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			settings, err := config.Load(cmd, state.configFile)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
			state.settings = settings
			state.logger = newLogger(cmd.ErrOrStderr(), state.verbose, state.quiet)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&state.configFile, "config", "", "Config file (default: "+config.AppName+".yaml in the user config dir)")
	cmd.PersistentFlags().StringP("output", "o", OutputText, "Output format: text, json or yaml")
	cmd.PersistentFlags().String("key-policy", KeyExact.String(), "Duplicate model name policy: exact or fold")
	cmd.PersistentFlags().BoolVar(&state.jsonOutput, "json", false, "Output in JSON format (same as --output json)")
	cmd.PersistentFlags().BoolVarP(&state.quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(diffCmd(state))
	cmd.AddCommand(validateCmd(state))
	cmd.AddCommand(checkURLsCmd(state))
	cmd.AddCommand(editCmd(state))

	return cmd
}

// newLogger returns a text logger on w. Warnings and errors are shown by
// default, debug output with verbose, errors only with quiet.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// diffSummary is the structured form of a diff run.
type diffSummary struct {
	Compare       string              `json:"compare" yaml:"compare"`
	Added         []string            `json:"added" yaml:"added"`
	Removed       []string            `json:"removed" yaml:"removed"`
	Changed       []string            `json:"changed" yaml:"changed"`
	ChangedHashes map[string]HashPair `json:"changed_hashes" yaml:"changed_hashes"`
	OutputDir     string              `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	ReportFile    string              `json:"report_file" yaml:"report_file"`
}

func diffCmd(state *cliState) *cobra.Command {
	var (
		prPath      string
		mainPath    string
		prHash      string
		mainHash    string
		outputDir   string
		infoFileOut string
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare a PR reference against main",
		Long: "Report models added, removed or changed (by file checksum) between the main and PR versions of the reference. " +
			"With --output-dir, the changed records are also written under <main-hash[:8]>...<pr-hash[:8]>/.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []LoadOption{WithKeyPolicy(state.keyPolicy())}

			mainRef, err := Load(mainPath, opts...)
			if err != nil {
				return err
			}
			prRef, err := Load(prPath, opts...)
			if err != nil {
				return err
			}

			res := Diff(mainRef, prRef)
			cmpID := CompareID(mainHash, prHash)
			state.logger.Debug("compared references", "compare", cmpID,
				"added", len(res.Added), "removed", len(res.Removed), "changed", len(res.Changed))

			summary := diffSummary{
				Compare:       cmpID,
				Added:         res.AddedNames(),
				Removed:       res.RemovedNames(),
				Changed:       res.ChangedNames(),
				ChangedHashes: res.ChangedHashes,
			}

			if outputDir != "" && res.HasChanges() {
				dir, err := WriteDiff(outputDir, mainHash, prHash, res)
				if err != nil {
					return err
				}
				summary.OutputDir = dir
			}

			reportFile := infoFileOut
			if reportFile == "" {
				reportFile = DefaultReportName(cmpID)
			}
			if err := WriteReportFile(reportFile, cmpID, res); err != nil {
				return err
			}
			summary.ReportFile = reportFile

			if state.format() != OutputText {
				return writeStructured(cmd.OutOrStdout(), state.format(), summary)
			}
			if err := WriteReport(cmd.OutOrStdout(), cmpID, res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&prPath, "pr-path", "", "Path to the PR version of the reference (required)")
	cmd.Flags().StringVar(&mainPath, "main-path", "", "Path to the main version of the reference (required)")
	cmd.Flags().StringVar(&prHash, "pr-hash", "", "Version identifier of the PR reference")
	cmd.Flags().StringVar(&mainHash, "main-hash", "", "Version identifier of the main reference")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Write models_{added,removed,changed}.json below this directory")
	cmd.Flags().StringVar(&infoFileOut, "info-file-out", "", "Report file (default: pr_diff_<compare>.txt)")
	cmd.MarkFlagRequired("pr-path")
	cmd.MarkFlagRequired("main-path")
	return cmd
}

func validateCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate the reference structure",
		Long:  "Check every record against the schema. With --strict, fields the schema does not declare are errors too.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			strict := state.settings.Validate.Strict

			res, err := ValidateFile(path, strict, WithKeyPolicy(state.keyPolicy()))
			if err != nil {
				return err
			}
			state.logger.Debug("validated reference", "path", path, "strict", strict, "errors", len(res.Errors))

			if state.format() != OutputText {
				if err := writeStructured(cmd.OutOrStdout(), state.format(), res); err != nil {
					return err
				}
				return res.Err()
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			if res.OK {
				if !state.quiet {
					p.Success("%s is valid", path)
				}
				return nil
			}
			p.Error("%s has %d problem(s)", path, len(res.Errors))
			for _, e := range res.Errors {
				p.Bullet("%s", e.Error())
			}
			return res.Err()
		},
	}

	cmd.Flags().Bool("strict", false, "Report fields the schema does not declare")
	return cmd
}

func checkURLsCmd(state *cliState) *cobra.Command {
	var gated []string

	cmd := &cobra.Command{
		Use:   "check-urls <file>",
		Short: "Check that every download URL resolves",
		Long: "Send one HEAD request per model to its download URL, spaced by --interval. " +
			"Responses from gated hosts (--gated-host host=403,524) pass with a warning.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := Load(args[0], WithKeyPolicy(state.keyPolicy()))
			if err != nil {
				return err
			}

			checkerOpts, err := state.checkerOptions(gated)
			if err != nil {
				return err
			}

			res := NewURLChecker(checkerOpts...).Check(cmd.Context(), ref)

			if state.format() != OutputText {
				if err := writeStructured(cmd.OutOrStdout(), state.format(), res); err != nil {
					return err
				}
				return res.Err()
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			if !state.quiet {
				for _, w := range res.Warnings {
					p.Warning("%s", w)
				}
			}
			if res.OK {
				if !state.quiet {
					p.Success("%d model(s) checked, all download URLs resolve", res.ModelsChecked)
				}
				return nil
			}
			p.Error("%d of %d model(s) failed the URL check", len(res.Errors), res.ModelsChecked)
			for _, e := range res.Errors {
				p.Bullet("%s", e.Error())
			}
			return res.Err()
		},
	}

	cmd.Flags().Duration("interval", DefaultProbeInterval, "Minimum delay between probes")
	cmd.Flags().Duration("timeout", DefaultRequestTimeout, "Timeout of each probe")
	cmd.Flags().StringSlice("marker", nil, "Name fragment of models allowed several download entries (repeatable)")
	cmd.Flags().StringArrayVar(&gated, "gated-host", nil, "Soft-pass rule host=status[,status...] (repeatable, replaces configured rules)")
	return cmd
}

// checkerOptions builds URLChecker options from settings and flags.
func (s *cliState) checkerOptions(gatedFlags []string) ([]CheckerOption, error) {
	uc := s.settings.URLCheck

	opts := []CheckerOption{
		WithLogger(s.logger),
		WithProbeInterval(uc.Interval),
		WithMultiFileMarkers(uc.Markers...),
	}

	switch {
	case s.cfg.Prober != nil:
		opts = append(opts, WithProber(s.cfg.Prober))
	case s.cfg.HTTPClient != nil:
		opts = append(opts, WithHTTPClient(s.cfg.HTTPClient))
	default:
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: uc.Timeout}))
	}

	var hosts []GatedHost
	if len(gatedFlags) > 0 {
		for _, raw := range gatedFlags {
			h, err := parseGatedHost(raw)
			if err != nil {
				return nil, err
			}
			hosts = append(hosts, h)
		}
	} else {
		for _, h := range uc.GatedHosts {
			hosts = append(hosts, GatedHost{HostContains: h.Host, Statuses: h.Statuses})
		}
	}
	opts = append(opts, WithGatedHosts(hosts...))

	return opts, nil
}

// parseGatedHost parses "host=403,524".
func parseGatedHost(raw string) (GatedHost, error) {
	host, list, ok := strings.Cut(raw, "=")
	host = strings.TrimSpace(host)
	if !ok || host == "" {
		return GatedHost{}, fmt.Errorf("%w: gated host %q: want host=status[,status...]", ErrInvalidArgument, raw)
	}

	g := GatedHost{HostContains: host}
	for _, part := range strings.Split(list, ",") {
		status, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || status < 100 || status > 599 {
			return GatedHost{}, fmt.Errorf("%w: gated host %q: invalid status %q", ErrInvalidArgument, raw, part)
		}
		g.Statuses = append(g.Statuses, status)
	}
	return g, nil
}

func editCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Add, update or remove a model record interactively",
	}

	actions := []struct {
		use   string
		short string
		run   func(*Editor, *cobra.Command) (EditResult, error)
	}{
		{"add <file>", "Add a model, downloading its file to record the checksum", func(e *Editor, c *cobra.Command) (EditResult, error) { return e.Add(c.Context()) }},
		{"update <file>", "Replace the prompted fields of an existing model", func(e *Editor, c *cobra.Command) (EditResult, error) { return e.Update(c.Context()) }},
		{"remove <file>", "Remove a model by exact name", func(e *Editor, c *cobra.Command) (EditResult, error) { return e.Remove(c.Context()) }},
	}

	for _, a := range actions {
		run := a.run
		cmd.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				editor, bar := state.newEditor(cmd, args[0])
				res, err := run(editor, cmd)
				if bar != nil {
					bar.finish()
				}
				if err != nil {
					return err
				}
				return outputEditResult(cmd.OutOrStdout(), state, res)
			},
		})
	}

	return cmd
}

// newEditor wires an Editor for path. The returned bar is nil when progress
// output is disabled.
func (s *cliState) newEditor(cmd *cobra.Command, path string) (*Editor, *progressBar) {
	prompter := s.cfg.Prompter
	if prompter == nil {
		prompter = prompt.New()
	}

	client := s.cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: s.settings.Fetch.Timeout}
	}

	opts := []EditorOption{
		WithEditorHTTPClient(client),
		WithEditorLogger(s.logger),
		WithEditorKeyPolicy(s.keyPolicy()),
	}

	var bar *progressBar
	if !s.quiet && ui.IsTerminal(cmd.ErrOrStderr()) {
		bar = newProgressBar(cmd.ErrOrStderr(), "artifact", progressRedraw)
		opts = append(opts, WithFetchProgress(bar.update))
	}

	return NewEditor(path, prompter, opts...), bar
}

func outputEditResult(w io.Writer, state *cliState, res EditResult) error {
	if state.format() != OutputText {
		return writeStructured(w, state.format(), res)
	}

	p := ui.NewPrinter(w)
	for _, warning := range res.Warnings {
		p.Warning("%s", warning)
	}
	if !state.quiet {
		p.Success("Model %q %s successfully", res.Model, res.Action)
	}
	return nil
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// exactArgs is cobra.ExactArgs with the error marked as an invalid argument.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/kristianoye/klf-yap/internal/config"
	"github.com/kristianoye/klf-yap/internal/finder"
	"github.com/kristianoye/klf-yap/internal/report"
	"github.com/kristianoye/klf-yap/internal/walker"
	"github.com/kristianoye/klf-yap/pkg/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "0.1.0"
	logger  *zap.Logger
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yap",
		Short: "yap - filesystem query and traversal engine",
		Long: `Query a directory tree with glob and globstar path expressions,
filter entries by size, depth, name, type, timestamps and content, and
stream or collect the results.`,
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(findCmd())
	rootCmd.AddCommand(grepCmd())
	rootCmd.AddCommand(statCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogger builds the process logger: development output under
// --verbose, error-level JSON otherwise.
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
		return err
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
		Encoding:         "json",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	logger, err = cfg.Build()
	return err
}

// findCmd creates the find command.
func findCmd() *cobra.Command {
	var (
		recursive   bool
		followLinks bool
		singleFS    bool
		keepGoing   bool
		buffered    bool
		bigInt      bool
		concurrency int
		minSize     string
		maxSize     string
		minDepth    int
		maxDepth    int
		prefix      string
		suffix      string
		entryType   string
		contains    string
		regex       bool
		ignoreCase  bool
		ignoreWS    bool
		minMatches  int
		maxMatches  int
		format      string
		noColor     bool
	)

	cmd := &cobra.Command{
		Use:   "find <expression> [expression...]",
		Short: "Find filesystem entries matching path expressions and criteria",
		Long: `Resolve one or more path expressions (glob and ** supported) and
print every entry satisfying the query criteria.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			if err := initLogger(); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				logger.Error("Failed to load config", zap.Error(err))
				return err
			}

			q := cfg.Query(args)
			if cmd.Flags().Changed("recursive") {
				q.Recursive = recursive
			}
			if cmd.Flags().Changed("follow-links") {
				q.FollowLinks = followLinks
			}
			if cmd.Flags().Changed("one-filesystem") {
				q.SingleFilesystem = singleFS
			}
			if cmd.Flags().Changed("concurrency") {
				q.Concurrency = concurrency
			}
			if keepGoing {
				throw := false
				q.ThrowErrors = &throw
			}
			if bigInt {
				q.BigInt = true
			}
			if minSize != "" {
				q.MinSize = minSize
			}
			if maxSize != "" {
				q.MaxSize = maxSize
			}
			q.MinDepth = minDepth
			if cmd.Flags().Changed("max-depth") {
				q.MaxDepth = maxDepth
			}
			q.Prefix = prefix
			q.Suffix = suffix
			if entryType != "" {
				q.Type = models.ParseEntryType(entryType)
			}
			q.Contains = contains
			q.ContainsIsRegex = regex
			if ignoreCase {
				q.CaseInsensitive = true
			}
			if ignoreWS {
				q.IgnoreWhitespace = true
			}
			q.MinMatches = minMatches
			q.MaxMatches = maxMatches
			q.Buffer = buffered

			if cmd.Flags().Changed("format") {
				cfg.Format = format
			}
			if noColor {
				cfg.NoColor = true
				color.NoColor = true
			}
			r := report.NewRenderer(cfg.Format, os.Stdout, cfg.NoColor)

			f := finder.New(logger)
			ctx := context.Background()
			start := time.Now()

			if q.Buffer {
				res, err := f.Find(ctx, q)
				if err != nil {
					return err
				}
				for _, entry := range res.Entries {
					var entryErr error
					if entry.IsPlaceholder() {
						entryErr = entry.Err
					}
					if err := r.Entry(entry, entryErr); err != nil {
						return err
					}
				}
				return r.Summary(res.Stats)
			}

			stats := finder.Stats{StartTime: start}
			streamErr := f.Stream(ctx, q, func(err error, entry *models.Entry) {
				r.Entry(entry, err)
				stats.TotalEntries++
				switch {
				case entry.IsPlaceholder():
					stats.Placeholders++
				case entry.IsDirectory():
					stats.TotalDirs++
					stats.Matched++
				case entry.IsFile():
					stats.TotalFiles++
					stats.Matched++
				default:
					stats.Matched++
				}
			})
			if streamErr != nil {
				return streamErr
			}
			stats.EndTime = time.Now()
			stats.Duration = stats.EndTime.Sub(stats.StartTime)
			return r.Summary(stats)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Expand sub-directories fully")
	cmd.Flags().BoolVarP(&followLinks, "follow-links", "L", false, "Resolve symbolic link targets")
	cmd.Flags().BoolVar(&singleFS, "one-filesystem", false, "Do not cross filesystem boundaries")
	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "Continue past probe failures (placeholder entries)")
	cmd.Flags().BoolVar(&buffered, "buffered", false, "Collect all results before printing")
	cmd.Flags().BoolVar(&bigInt, "bigint", false, "Use arbitrary-precision stat numerics")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max in-flight filesystem probes (0 = unbounded)")
	cmd.Flags().StringVar(&minSize, "min-size", "", "Minimum file size (e.g. 100, 1KB, 1MiB)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Maximum file size")
	cmd.Flags().IntVar(&minDepth, "min-depth", 0, "Minimum absolute entry depth")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum absolute entry depth")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Entry name prefix")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Entry name suffix")
	cmd.Flags().StringVarP(&entryType, "type", "t", "", "Entry type: file, directory, link, socket, fifo, block, char")
	cmd.Flags().StringVarP(&contains, "contains", "c", "", "Content pattern the file must contain")
	cmd.Flags().BoolVar(&regex, "regex", false, "Treat the content pattern as a regular expression")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Case-insensitive content matching")
	cmd.Flags().BoolVar(&ignoreWS, "ignore-whitespace", false, "Whitespace-insensitive literal matching")
	cmd.Flags().IntVar(&minMatches, "min-matches", 0, "Minimum content match count (default 1 with a pattern)")
	cmd.Flags().IntVar(&maxMatches, "max-matches", 0, "Maximum content match count (0 = unbounded)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colorized output")

	return cmd
}

// grepCmd creates the grep command.
func grepCmd() *cobra.Command {
	var (
		recursive  bool
		regex      bool
		ignoreCase bool
		ignoreWS   bool
		keepGoing  bool
	)

	cmd := &cobra.Command{
		Use:   "grep <pattern> <expression> [expression...]",
		Short: "Stream content matches with line and column positions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			q := cfg.Query(args[1:])
			q.Recursive = recursive || q.Recursive
			q.Contains = args[0]
			q.ContainsIsRegex = regex
			q.CaseInsensitive = ignoreCase
			q.IgnoreWhitespace = ignoreWS
			q.Type = models.TypeFile
			if keepGoing {
				throw := false
				q.ThrowErrors = &throw
			}

			dim := color.New(color.Faint)
			pos := color.New(color.FgGreen)
			if cfg.NoColor {
				dim.DisableColor()
				pos.DisableColor()
			}
			q.OnMatch = func(m *models.Match) {
				text := strings.TrimRight(m.Text, "\r\n")
				fmt.Printf("%s%s %s\n",
					m.Entry.FullPath,
					pos.Sprintf(":%d:%d", m.Line, m.Column),
					dim.Sprint(text))
			}

			f := finder.New(logger)
			return f.Stream(context.Background(), q, func(err error, entry *models.Entry) {
				if err != nil {
					fmt.Fprintf(os.Stderr, "yap: %s: %v\n", entry.FullPath, err)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Expand sub-directories fully")
	cmd.Flags().BoolVar(&regex, "regex", false, "Treat the pattern as a regular expression")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Case-insensitive matching")
	cmd.Flags().BoolVar(&ignoreWS, "ignore-whitespace", false, "Whitespace-insensitive literal matching")
	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "Continue past probe failures")

	return cmd
}

// statCmd creates the stat command.
func statCmd() *cobra.Command {
	var followLinks bool

	cmd := &cobra.Command{
		Use:   "stat <path>",
		Short: "Probe one path and dump its entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			q := models.Query{
				Expressions: args,
				FollowLinks: followLinks,
			}
			nq, err := q.Normalize()
			if err != nil {
				return err
			}

			w := walker.New(logger, 0)
			entry, err := w.Stat(context.Background(), args[0], nq)
			if err != nil {
				return err
			}

			r := report.NewRenderer("json", os.Stdout, true)
			return r.Entry(entry, nil)
		},
	}

	cmd.Flags().BoolVarP(&followLinks, "follow-links", "L", false, "Resolve symbolic link targets")
	return cmd
}

// validateFormat checks the output format flag before any work starts.
func validateFormat(format string) error {
	if format == "" || format == "text" || format == "json" {
		return nil
	}
	return fmt.Errorf("--format must be one of: text, json (got: %s)", format)
}

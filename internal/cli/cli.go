// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/foldertree/internal/config"
	"github.com/temirov/foldertree/internal/ignore"
	"github.com/temirov/foldertree/internal/output"
	"github.com/temirov/foldertree/internal/picker"
	"github.com/temirov/foldertree/internal/services/clipboard"
	"github.com/temirov/foldertree/internal/tokenizer"
	"github.com/temirov/foldertree/internal/tree"
	"github.com/temirov/foldertree/internal/types"
	"github.com/temirov/foldertree/internal/utils"
)

const (
	versionFlagName       = "version"
	configFlagName        = "config"
	verboseFlagName       = "verbose"
	ignoreFlagName        = "ignore"
	ignoreFlagShorthand   = "i"
	ignoreFileFlagName    = "ignore-file"
	noDefaultsFlagName    = "no-defaults"
	formatFlagName        = "format"
	copyFlagName          = "copy"
	tokensFlagName        = "tokens"
	modelFlagName         = "model"
	reportSkippedFlagName = "report-skipped"
	pickFlagName          = "pick"
	globalFlagName        = "global"
	forceFlagName         = "force"
	addressFlagName       = "address"

	versionTemplate      = "foldertree version: %s\n"
	defaultPath          = "."
	rootUse              = "foldertree"
	rootShortDescription = "render directory trees as text diagrams"
	rootLongDescription  = `foldertree renders a directory as a Unicode tree diagram.
Entries whose name is on the ignore list are left out together with everything beneath them.
Use --version to print the application version.`
	treeUse              = "tree [paths...]"
	treeAlias            = "t"
	treeShortDescription = "render the directory tree (" + treeAlias + ")"
	treeLongDescription  = `Render the tree of one or more directories.
The default ignore list is applied unless --no-defaults is given; -i adds names to it.
Use --format to select raw, json, or xml output.`
	treeUsageExample = `  # Render the current directory
  foldertree tree

  # Also skip vendor and coverage, copy the result to the clipboard
  foldertree tree -i vendor -i coverage --copy ./project

  # Pick the directory interactively
  foldertree tree --pick`
	defaultsUse              = "defaults"
	defaultsShortDescription = "print the default ignore list"
	pickUse                  = "pick [start]"
	pickShortDescription     = "choose a directory interactively and print its path"
	initUse                  = "init"
	initShortDescription     = "write a configuration file with default settings"

	versionFlagDescription       = "display application version"
	configFlagDescription        = "configuration file to use instead of ./" + utils.LocalConfigFileName
	verboseFlagDescription       = "log debug messages"
	ignoreFlagDescription        = "entry name to ignore (repeatable)"
	ignoreFileFlagDescription    = "file listing entry names to ignore, one per line (repeatable)"
	noDefaultsFlagDescription    = "do not apply the default ignore list"
	formatFlagDescription        = "output format: raw, json, or xml"
	copyFlagDescription          = "copy the output to the clipboard"
	tokensFlagDescription        = "report the token count of each rendered tree"
	modelFlagDescription         = "tokenizer model to use for token counting"
	reportSkippedFlagDescription = "report entries that could not be read"
	pickFlagDescription          = "choose the directory interactively"
	globalFlagDescription        = "write the global configuration instead of the local one"
	forceFlagDescription         = "overwrite an existing configuration file"

	invalidFormatMessage         = "Invalid format value '%s'"
	pickCancelledMessage         = "no directory selected"
	skippedEntryWarning          = "skipped unreadable entry"
	clipboardWarning             = "unable to copy output to clipboard"
	tokenCountWarning            = "unable to count tokens"
	configurationWrittenTemplate = "configuration written to %s\n"
	workingDirectoryErrorFormat  = "unable to determine working directory: %w"
	loadConfigurationErrorFormat = "load configuration: %w"
	buildIgnoreSetErrorFormat    = "build ignore list: %w"
	absolutePathErrorFormat      = "abs failed for '%s': %w"
)

// application carries the state shared by all commands of one invocation.
type application struct {
	logger         *zap.Logger
	configFilePath string
	verbose        bool
	configuration  config.ApplicationConfiguration
	copier         clipboard.Copier
	pickDirectory  func(ctx context.Context, startDirectory string) (string, bool, error)
	openRoot       func(walkRoot string) fs.FS
}

func newApplication(logger *zap.Logger) *application {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &application{
		logger:        logger,
		copier:        clipboard.NewService(),
		pickDirectory: picker.Pick,
	}
}

// Execute runs the foldertree application.
func Execute(logger *zap.Logger) error {
	rootCommand := createRootCommand(newApplication(logger))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(app *application) *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			return app.prepare()
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&app.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.AddCommand(
		createTreeCommand(app),
		createDefaultsCommand(),
		createPickCommand(app),
		createServeCommand(app),
		createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepare loads configuration and raises the log level when --verbose is set.
func (app *application) prepare() error {
	if app.verbose {
		verboseLogger, loggerError := utils.NewApplicationLogger(true)
		if loggerError != nil {
			return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
		}
		app.logger = verboseLogger
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	loadedConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: app.configFilePath,
	})
	if loadError != nil {
		return fmt.Errorf(loadConfigurationErrorFormat, loadError)
	}
	app.configuration = loadedConfiguration
	return nil
}

// treeFlagValues stores the raw values of the tree command flags.
type treeFlagValues struct {
	ignoreNames   []string
	ignoreFiles   []string
	noDefaults    bool
	format        string
	copy          bool
	tokens        bool
	model         string
	reportSkipped bool
	pick          bool
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(app *application) *cobra.Command {
	var flagValues treeFlagValues

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			settings := app.configuration.Tree.Resolve()
			applyTreeFlags(command, flagValues, &settings)
			settings.Format = strings.ToLower(settings.Format)
			if !output.IsSupportedFormat(settings.Format) {
				return fmt.Errorf(invalidFormatMessage, settings.Format)
			}

			rootPaths := arguments
			if flagValues.pick {
				startDirectory := defaultPath
				if len(arguments) > 0 {
					startDirectory = arguments[0]
				}
				selectedPath, selected, pickError := app.pickDirectory(command.Context(), startDirectory)
				if pickError != nil {
					return pickError
				}
				if !selected {
					fmt.Fprintln(command.ErrOrStderr(), pickCancelledMessage)
					return nil
				}
				rootPaths = []string{selectedPath}
			}
			if len(rootPaths) == 0 {
				rootPaths = []string{defaultPath}
			}
			return app.runTree(command.Context(), command.OutOrStdout(), rootPaths, settings)
		},
	}

	treeCommand.Flags().StringArrayVarP(&flagValues.ignoreNames, ignoreFlagName, ignoreFlagShorthand, nil, ignoreFlagDescription)
	treeCommand.Flags().StringArrayVar(&flagValues.ignoreFiles, ignoreFileFlagName, nil, ignoreFileFlagDescription)
	treeCommand.Flags().BoolVar(&flagValues.noDefaults, noDefaultsFlagName, false, noDefaultsFlagDescription)
	treeCommand.Flags().StringVar(&flagValues.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	treeCommand.Flags().BoolVar(&flagValues.copy, copyFlagName, false, copyFlagDescription)
	treeCommand.Flags().BoolVar(&flagValues.tokens, tokensFlagName, false, tokensFlagDescription)
	treeCommand.Flags().StringVar(&flagValues.model, modelFlagName, config.DefaultTokenizerModel, modelFlagDescription)
	treeCommand.Flags().BoolVar(&flagValues.reportSkipped, reportSkippedFlagName, false, reportSkippedFlagDescription)
	treeCommand.Flags().BoolVar(&flagValues.pick, pickFlagName, false, pickFlagDescription)
	return treeCommand
}

// applyTreeFlags overrides configuration values with the flags given on the command line.
// Ignore names and ignore files add to the configured lists.
func applyTreeFlags(command *cobra.Command, flagValues treeFlagValues, settings *config.TreeSettings) {
	flags := command.Flags()
	settings.Ignore.Names = append(settings.Ignore.Names, flagValues.ignoreNames...)
	settings.Ignore.Files = append(settings.Ignore.Files, flagValues.ignoreFiles...)
	if flags.Changed(noDefaultsFlagName) {
		settings.Ignore.UseDefaults = !flagValues.noDefaults
	}
	if flags.Changed(formatFlagName) {
		settings.Format = flagValues.format
	}
	if flags.Changed(copyFlagName) {
		settings.Clipboard = flagValues.copy
	}
	if flags.Changed(tokensFlagName) {
		settings.TokensEnabled = flagValues.tokens
	}
	if flags.Changed(modelFlagName) {
		settings.TokenModel = flagValues.model
	}
	if flags.Changed(reportSkippedFlagName) {
		settings.ReportSkipped = flagValues.reportSkipped
	}
}

// runTree renders every root and writes the encoded result to writer.
func (app *application) runTree(ctx context.Context, writer io.Writer, rootPaths []string, settings config.TreeSettings) error {
	ignoreNames, buildError := ignore.Build(settings.Ignore)
	if buildError != nil {
		return fmt.Errorf(buildIgnoreSetErrorFormat, buildError)
	}
	app.logger.Debug("ignoring names", zap.Strings("names", ignoreNames.Names()))

	treeOutputs, renderError := app.renderRoots(ctx, rootPaths, ignoreNames, settings.ReportSkipped)
	if renderError != nil {
		return renderError
	}

	if settings.TokensEnabled {
		app.countTokens(treeOutputs, settings.TokenModel)
	}

	if !settings.ReportSkipped {
		omitSkipped(treeOutputs)
	}
	rendered, writeError := output.Write(writer, settings.Format, treeOutputs)
	if writeError != nil {
		return writeError
	}

	if settings.Clipboard {
		if copyError := app.copier.Copy(rendered); copyError != nil {
			app.logger.Warn(clipboardWarning, zap.Error(copyError))
		}
	}
	return nil
}

// renderRoots renders each root on its own goroutine and returns the results in argument order.
// A single traversal stays sequential. Skipped paths are always collected; warnSkipped logs each one.
func (app *application) renderRoots(ctx context.Context, rootPaths []string, ignoreNames ignore.Set, warnSkipped bool) ([]types.TreeOutput, error) {
	treeOutputs := make([]types.TreeOutput, len(rootPaths))
	renderer := tree.NewRenderer(app.logger)
	renderer.FileSystem = app.openRoot

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())
	for rootIndex, rootPath := range rootPaths {
		rootIndex, rootPath := rootIndex, rootPath
		group.Go(func() error {
			result, generateError := renderer.Generate(rootPath, ignoreNames)
			if generateError != nil {
				return generateError
			}
			absoluteRootPath, absoluteError := filepath.Abs(rootPath)
			if absoluteError != nil {
				return fmt.Errorf(absolutePathErrorFormat, rootPath, absoluteError)
			}
			treeOutput := types.TreeOutput{Root: absoluteRootPath, Tree: result.Text, Skipped: result.Skipped}
			if warnSkipped {
				for _, skippedPath := range result.Skipped {
					app.logger.Warn(skippedEntryWarning, zap.String("path", skippedPath))
				}
			}
			treeOutputs[rootIndex] = treeOutput
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}
	return treeOutputs, nil
}

func omitSkipped(treeOutputs []types.TreeOutput) {
	for outputIndex := range treeOutputs {
		treeOutputs[outputIndex].Skipped = nil
	}
}

// countTokens annotates each output with its token estimate. Failures only produce a warning.
func (app *application) countTokens(treeOutputs []types.TreeOutput, model string) {
	counter, resolvedModel, counterError := tokenizer.NewCounter(model)
	if counterError != nil {
		app.logger.Warn(tokenCountWarning, zap.Error(counterError))
		return
	}
	for outputIndex := range treeOutputs {
		countResult, countError := tokenizer.CountText(counter, treeOutputs[outputIndex].Tree)
		if countError != nil {
			app.logger.Warn(tokenCountWarning, zap.String("root", treeOutputs[outputIndex].Root), zap.Error(countError))
			continue
		}
		treeOutputs[outputIndex].Tokens = countResult.Tokens
		treeOutputs[outputIndex].Model = resolvedModel
		app.logger.Info(fmt.Sprintf("%s: %d tokens (%s)", treeOutputs[outputIndex].Root, countResult.Tokens, resolvedModel))
	}
}

// createDefaultsCommand returns the defaults subcommand.
func createDefaultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   defaultsUse,
		Short: defaultsShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			for _, name := range ignore.DefaultNames() {
				fmt.Fprintln(command.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// createPickCommand returns the pick subcommand.
func createPickCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   pickUse,
		Short: pickShortDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			startDirectory := defaultPath
			if len(arguments) == 1 {
				startDirectory = arguments[0]
			}
			selectedPath, selected, pickError := app.pickDirectory(command.Context(), startDirectory)
			if pickError != nil {
				return pickError
			}
			if !selected {
				fmt.Fprintln(command.ErrOrStderr(), pickCancelledMessage)
				return nil
			}
			fmt.Fprintln(command.OutOrStdout(), selectedPath)
			return nil
		},
	}
}

// createInitCommand returns the init subcommand.
func createInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), configurationWrittenTemplate, writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

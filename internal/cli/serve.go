package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temirov/foldertree/internal/config"
	"github.com/temirov/foldertree/internal/ignore"
	"github.com/temirov/foldertree/internal/output"
	"github.com/temirov/foldertree/internal/services/mcp"
	"github.com/temirov/foldertree/internal/types"
)

const (
	serveUse                = "serve"
	serveShortDescription   = "serve tree rendering over HTTP"
	serveAddressDescription = "address to listen on"
	servingMessageFormat    = "foldertree serving on %s\n"
)

// createServeCommand returns the serve subcommand.
func createServeCommand(app *application) *cobra.Command {
	var address string

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			listenAddress := app.configuration.Serve.ResolveAddress()
			if command.Flags().Changed(addressFlagName) {
				listenAddress = address
			}
			signalContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return startTreeServer(signalContext, app, command.OutOrStdout(), listenAddress)
		},
	}
	serveCommand.Flags().StringVar(&address, addressFlagName, config.DefaultServeAddress, serveAddressDescription)
	return serveCommand
}

// startTreeServer blocks serving trees until ctx is canceled.
func startTreeServer(ctx context.Context, app *application, writer io.Writer, address string) error {
	server := mcp.NewServer(mcp.Config{
		Address:      address,
		Trees:        app,
		DefaultNames: ignore.DefaultNames,
		Logger:       app.logger,
	})
	return server.Run(ctx, func(boundAddress string) {
		fmt.Fprintf(writer, servingMessageFormat, boundAddress)
	})
}

// RenderTrees renders the roots named by an HTTP request. The skipped report is always returned per root;
// reportSkipped also embeds it in the encoded output and logs each skipped path.
func (app *application) RenderTrees(ctx context.Context, request mcp.TreeRequest) (mcp.TreeResponse, error) {
	format := strings.ToLower(strings.TrimSpace(request.Format))
	if format == "" {
		format = types.FormatRaw
	}
	if !output.IsSupportedFormat(format) {
		return mcp.TreeResponse{}, fmt.Errorf("%w: "+invalidFormatMessage, mcp.ErrBadRequest, request.Format)
	}

	ignoreNames, buildError := ignore.Build(ignore.Options{
		UseDefaults: resolveBoolean(request.UseDefaults, true),
		Names:       request.Ignore,
		Files:       request.IgnoreFiles,
	})
	if buildError != nil {
		return mcp.TreeResponse{}, fmt.Errorf("%w: "+buildIgnoreSetErrorFormat, mcp.ErrBadRequest, buildError)
	}

	rootPaths := request.Paths
	if request.Path != "" {
		rootPaths = append([]string{request.Path}, rootPaths...)
	}
	reportSkipped := resolveBoolean(request.ReportSkipped, false)
	treeOutputs, renderError := app.renderRoots(ctx, sanitizePaths(rootPaths), ignoreNames, reportSkipped)
	if renderError != nil {
		return mcp.TreeResponse{}, renderError
	}

	rootReports := make([]mcp.RootReport, 0, len(treeOutputs))
	for _, treeOutput := range treeOutputs {
		rootReports = append(rootReports, mcp.RootReport{Root: treeOutput.Root, Skipped: treeOutput.Skipped})
	}
	if !reportSkipped {
		omitSkipped(treeOutputs)
	}
	rendered, encodeError := output.Render(format, treeOutputs)
	if encodeError != nil {
		return mcp.TreeResponse{}, encodeError
	}
	return mcp.TreeResponse{Output: rendered, Format: format, Roots: rootReports}, nil
}

func sanitizePaths(input []string) []string {
	var result []string
	for _, candidate := range input {
		trimmed := strings.TrimSpace(candidate)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return []string{defaultPath}
	}
	return result
}

func resolveBoolean(value *bool, defaultValue bool) bool {
	if value == nil {
		return defaultValue
	}
	return *value
}

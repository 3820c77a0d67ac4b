package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/hints"
)

// Version is set at build time via ldflags.
var Version = "dev"

// commands lists the subcommand names recognized by runMain.
var commands = []string{"convert", "doctor", "version", "help"}

func main() {
	verbose := slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose")

	// Configure GOMAXPROCS with conditional logging, so that the default pool
	// size follows the container CPU quota.
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the process exit code.
// A first argument that is not a command is treated as convert input, so
// "html2pdf site/" works like "html2pdf convert site/".
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	if !isCommand(cmd) {
		if (strings.HasPrefix(cmd, "-") && cmd != "-h" && cmd != "--help") || looksLikeInput(cmd) {
			cmd, rest = "convert", args[1:]
		}
	}

	switch cmd {
	case "convert":
		err := runConvert(ctx, rest, env)
		if err != nil {
			fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		}
		return exitCodeFor(err)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "html2pdf %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// isCommand reports whether arg names a subcommand.
func isCommand(arg string) bool {
	return slices.Contains(commands, arg)
}

// looksLikeInput reports whether arg is an existing path or has an input
// extension.
func looksLikeInput(arg string) bool {
	if isSupportedInput(arg) {
		return true
	}
	_, err := os.Stat(arg)
	return err == nil
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, html2pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, html2pdf.ErrRenderTimeout):
		return hints.ForRenderTimeout()
	case errors.Is(err, html2pdf.ErrPoolTimeout):
		return hints.ForPoolTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(configSearchPaths(err))
	case errors.Is(err, html2pdf.ErrInvalidPageSize):
		return hints.ForPageSize([]string{html2pdf.PageSizeLetter, html2pdf.PageSizeA4, html2pdf.PageSizeLegal})
	case errors.Is(err, html2pdf.ErrIO):
		if strings.Contains(err.Error(), gcsPrefix) {
			return hints.ForCloudStorage()
		}
		return hints.ForOutputDirectory()
	}
	return ""
}

// configSearchPaths extracts the tried paths from a config-not-found error.
func configSearchPaths(err error) []string {
	_, tried, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(tried, ", ")
}

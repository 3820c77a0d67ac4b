package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Render HTML and Markdown files to PDF")
	fmt.Fprintln(w, "  doctor     Check Chrome and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'html2pdf help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render .html, .htm, .md and .markdown files to PDF, in parallel.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    File or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, directory, or gs://bucket/prefix")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --css <path>          Stylesheet injected into every document")
	fmt.Fprintln(w, "      --no-mkdir            Do not create missing output directories")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = pool size)")
	fmt.Fprintln(w, "      --pool-size <n>       Browser instances (0 = auto, max 16)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-document timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --retries <n>         Attempts to acquire a browser")
	fmt.Fprintln(w, "      --retry-delay <d>     Wait per acquire attempt")
	fmt.Fprintln(w, "      --rate <f>            Max documents started per second")
	fmt.Fprintln(w, "      --rate-burst <n>      Documents allowed at once above --rate")
	fmt.Fprintln(w, "      --verify              Validate every PDF and count its pages")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches, all sides")
	fmt.Fprintln(w, "      --margin-top <f>      Top margin (also -left, -bottom, -right)")
	fmt.Fprintln(w, "      --base-url <url>      Base URL for relative references")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing and debug logs")
	fmt.Fprintln(w, "      --progress            Show a progress bar")
	fmt.Fprintln(w, "      --summary             Print a summary table")
	fmt.Fprintln(w, "      --no-color            Disable colored output")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  HTML2PDF_CONFIG, HTML2PDF_TIMEOUT, HTML2PDF_WORKERS, HTML2PDF_POOL_SIZE,")
	fmt.Fprintln(w, "  HTML2PDF_INPUT_DIR, HTML2PDF_OUTPUT_DIR, HTML2PDF_CSS, HTML2PDF_PAGE_SIZE,")
	fmt.Fprintln(w, "  HTML2PDF_ORIENTATION, HTML2PDF_BASE_URL, HTML2PDF_LOG_LEVEL, HTML2PDF_LOG_FORMAT")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 general, 2 usage, 3 I/O, 4 browser/render, 5 pool timeout")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, sandbox settings, Cloud Storage credentials and the temp directory.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: html2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: html2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}

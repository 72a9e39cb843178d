package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
//
// Each failure category maps to a distinct, stable code so CI callers can
// branch on the failure kind without parsing messages.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if pe, ok := err.(*PackError); ok {
		return a.exitCodeFromPack(pe)
	}

	return 1
}

// exitCodeFromPack maps PackError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromPack(err *PackError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryNotFound:
		return 3
	case CategoryNotADirectory:
		return 4
	case CategoryCycle:
		return 5
	case CategoryEmptyTree:
		return 6
	case CategoryConfig:
		return 7
	case CategoryEncoding:
		return 8
	case CategoryIdentifierCollision:
		return 9
	case CategoryInternal:
		return 10
	case CategoryToolchain:
		return 11
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if pe, ok := err.(*PackError); ok {
		return a.formatPack(pe)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatPack formats a PackError for display.
func (a *CLIErrorAdapter) formatPack(err *PackError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if pe, ok := err.(*PackError); ok {
		return pe.Category == CategoryInternal || pe.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	attrs := []any{"error", err.Error()}

	if pe, ok := err.(*PackError); ok {
		attrs = append(attrs, "category", string(pe.Category), "severity", string(pe.Severity))
		for k, v := range pe.Context {
			attrs = append(attrs, k, v)
		}
	}

	a.logger.Error("Command failed", attrs...)
}

// Package cmd implements the command-line interface for gmailtriage.
//
// This package provides the following commands:
//   - triage: Scan unread Gmail messages and archive what the model suggests
//   - auth: Run the interactive OAuth authorization flow (auth reset clears the token)
//   - version: Display version information
//
// The triage command is the default command when no subcommand is specified.
package cmd

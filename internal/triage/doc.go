// Package triage drives the pipeline once per invocation: list unread
// messages, extract their text, ask the suggestion engine for an
// archive/keep decision, and apply or present the result.
package triage

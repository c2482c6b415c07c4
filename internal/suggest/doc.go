// Package suggest asks an OpenAI chat model whether an unread email can
// be archived and parses the answer into a structured suggestion.
package suggest

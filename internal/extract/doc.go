// Package extract converts raw email bodies (HTML or plain text) into
// bounded plain text for downstream classification.
package extract

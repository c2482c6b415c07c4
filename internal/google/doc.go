// Package google manages OAuth2 credentials for the Gmail API: loading
// the client secret, running the interactive authorization flow, and
// persisting the resulting token to the user's configuration directory.
package google

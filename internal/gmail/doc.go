// Package gmail wraps the Gmail REST API for the narrow surface this
// tool needs: listing unread inbox messages with their decoded bodies
// and archiving messages by label mutation.
package gmail

// Package guard rejects unsafe SQL fragments before they are rendered.
//
// It has two halves. The sanitizer quotes literals and identifiers after
// refusing input that carries statement separators, comment markers or
// control characters. The token guards check operators, relations, join
// types and sort directions against closed sets, and the allow-list guards
// restrict which tables and raw statements a client may touch.
//
// Every function fails with a *ValidationError; errors.Is matches it against
// ErrValidation as well as the specific sentinel that caused it.
package guard

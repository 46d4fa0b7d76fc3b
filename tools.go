//go:build tools
// +build tools

// Package tools pins the code generators run by go generate (mockgen) so
// their versions are tracked in go.mod.
package chat_relay

import (
	_ "go.uber.org/mock/mockgen"
)

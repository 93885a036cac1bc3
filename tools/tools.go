//go:build tools

package tools

// Tracks mockgen, which go:generate runs for the repository mocks but no
// package imports.

import (
	_ "go.uber.org/mock/mockgen"
)

//go:build tools

package tools

// Tool dependencies tracked with blank imports so `go run` resolves the
// pinned version. Run: go run github.com/vektra/mockery/v2 (from the module
// root) to regenerate pkg/ble/mocks.
import (
	_ "github.com/vektra/mockery/v2"
)

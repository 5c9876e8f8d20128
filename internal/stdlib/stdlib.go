// Package stdlib registers the built-in words every interpreter starts with.
package stdlib

import (
	"github.com/funvibe/stak/internal/evaluator"
)

// Register installs the whole catalog into reg. Each call builds fresh
// closures, so per-interpreter bookkeeping (such as the import guard) is
// never shared between registries.
func Register(reg *evaluator.Registry) {
	registerStack(reg)
	registerIO(reg)
	registerLists(reg)
	registerConversions(reg)
	registerSystem(reg)
	registerData(reg)
	registerFormat(reg)
}

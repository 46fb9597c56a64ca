package interp

import (
	"github.com/dshills/corelang-go/builtin"
	"github.com/dshills/corelang-go/ir"
	"github.com/dshills/corelang-go/workflow"
)

// Runtime is the Loader's read-only output shared by every activation
// of a loaded module: the global environment holding top-level
// function closures, the built-in registry, the data/enum declarations
// needed to validate Construct and enum-variant lookups, and the
// ambient workflow configuration (metrics, determinism, purity
// analysis) every `workflow`/`start` statement draws on.
type Runtime struct {
	Global       *Environment
	Builtins     *builtin.Registry
	DataTypes    map[string]*ir.DataDecl
	Analyzer     *workflow.Analyzer
	Det          *workflow.Context
	WorkflowOpts workflow.RunOptions
	RunID        string
}

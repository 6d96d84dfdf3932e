package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/faults"
	"github.com/crmarques/restresource/internal/cli/common"
	"github.com/crmarques/restresource/internal/client"
)

type Dependencies struct {
	NewLoader     func(path string) config.CatalogLoader
	ClientOptions []client.Option
}

func (d Dependencies) commandDependencies() common.CommandDependencies {
	return common.CommandDependencies{
		NewLoader:     d.NewLoader,
		ClientOptions: d.ClientOptions,
	}
}

func Execute(ctx context.Context, deps Dependencies, args []string) error {
	root := NewRootCommand(deps)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

// exitCodes is checked in order; transport failures carry their HTTP
// classification as a wrapped cause, so specific categories come first.
var exitCodes = []struct {
	category faults.ErrorCategory
	code     int
}{
	{faults.BadMemberPath, 2},
	{faults.BadParamName, 2},
	{faults.BadArgumentCount, 2},
	{faults.NotFoundError, 3},
	{faults.AuthError, 4},
	{faults.ConflictError, 5},
	{faults.ValidationError, 2},
	{faults.BadResponseShape, 7},
	{faults.TransportError, 6},
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	for _, entry := range exitCodes {
		if faults.IsCategory(err, entry.category) {
			return entry.code
		}
	}
	return 1
}

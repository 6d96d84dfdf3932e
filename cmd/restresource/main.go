package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/internal/cli"
	filecatalog "github.com/crmarques/restresource/internal/providers/config/file"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, defaultDependencies(), os.Args[1:])
	stop()
	os.Exit(cli.ExitCodeForError(err))
}

func defaultDependencies() cli.Dependencies {
	return cli.Dependencies{
		NewLoader: func(path string) config.CatalogLoader {
			return filecatalog.NewFileCatalogLoader(path)
		},
	}
}

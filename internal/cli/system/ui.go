package system

import (
	"context"
	"path/filepath"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/web"
)

// UiCmd serves the browser interface on localhost.
type UiCmd struct {
	Port      int  `help:"Port to listen on." default:"${port}"`
	NoBrowser bool `help:"Do not open a browser window." name:"no-browser"`
}

var runServer = web.Run

func (c *UiCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	dataDir := filepath.Dir(ctx.Store.GetConfigPath())
	debug := false
	if ctx.Config != nil {
		dataDir = ctx.Config.DataDir()
		debug = ctx.Config.Debug
	}

	reqLog, err := logger.Named(logger.Config{Debug: debug, ConfigDir: dataDir}, constants.ServerLogFileName, "web")
	if err != nil {
		logger.Warn("Request log unavailable", "error", err)
	}

	return runServer(context.Background(), web.RunOptions{
		Options: web.Options{
			Store:   ctx.Store,
			Extract: web.ExtractFunc(ctx.Extractor()),
			Logger:  reqLog,
			Now:     ctx.Now,
		},
		DataDir:     dataDir,
		Port:        c.Port,
		OpenBrowser: !c.NoBrowser,
		Out:         ctx.Out(),
	})
}

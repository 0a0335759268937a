package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/logger"
)

var openBrowserFunc = openBrowser

type RunOptions struct {
	Options
	// DataDir holds the lockfile.
	DataDir     string
	Port        int
	OpenBrowser bool
	// Out receives the startup banner.
	Out io.Writer
}

// Run serves the UI on localhost until ctx is cancelled or the process gets
// SIGINT/SIGTERM. When a live server already owns the lockfile, Run only
// points the browser at it.
func Run(ctx context.Context, opts RunOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	lockPath := LockfilePath(opts.DataDir)

	if port, err := RunningServer(lockPath); err == nil {
		url := fmt.Sprintf("http://127.0.0.1:%d", port)
		fmt.Fprintf(out, "hourlog is already running at %s\n", url)
		if opts.OpenBrowser {
			if err := openBrowserFunc(url); err != nil {
				logger.Warn("Failed to open browser", "url", url, "error", err)
			}
		}
		return nil
	} else if !errors.Is(err, errNoServer) {
		logger.Debug("Ignoring lockfile", "path", lockPath, "reason", err)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", opts.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", opts.Port, err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("http://127.0.0.1:%d", port)

	opts.Addr = ln.Addr().String()
	srv, err := New(opts.Options)
	if err != nil {
		ln.Close()
		return err
	}

	if err := writeLockfile(lockPath, port); err != nil {
		logger.Warn("Failed to write server lockfile", "path", lockPath, "error", err)
	}
	defer removeLockfile(lockPath)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting web UI", "addr", url)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownWindow)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("Web UI stopped")
		return nil
	})

	if opts.OpenBrowser {
		g.Go(func() error {
			select {
			case <-time.After(constants.BrowserOpenDelay):
				if err := openBrowserFunc(url); err != nil {
					logger.Warn("Failed to open browser", "url", url, "error", err)
				}
			case <-gctx.Done():
			}
			return nil
		})
	}

	fmt.Fprintf(out, "hourlog is running at %s (press Ctrl+C to stop)\n", url)
	return g.Wait()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

package web

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/hourlog/internal/constants"
)

var findProcessFunc = ps.FindProcess

var errNoServer = errors.New("no hourlog server is running")

// LockfilePath is where a running server records "port|pid".
func LockfilePath(dataDir string) string {
	return filepath.Join(dataDir, constants.ServerLockfileName)
}

func writeLockfile(path string, port int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	content := fmt.Sprintf("%d|%d", port, os.Getpid())
	return os.WriteFile(path, []byte(content), 0600)
}

// removeLockfile deletes the lockfile only if this process still owns it.
func removeLockfile(path string) {
	_, pid, err := parseLockfile(path)
	if err != nil || pid != os.Getpid() {
		return
	}
	_ = os.Remove(path)
}

func parseLockfile(path string) (port, pid int, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, errNoServer
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return 0, 0, errors.New("lockfile is malformed")
	}

	port, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return 0, 0, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.New("invalid process ID in lockfile")
	}
	return port, pid, nil
}

// RunningServer returns the port of a live hourlog server recorded in the
// lockfile. Stale lockfiles are reported as errors.
func RunningServer(path string) (int, error) {
	port, pid, err := parseLockfile(path)
	if err != nil {
		return 0, err
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return 0, fmt.Errorf("stale lockfile: process %d is not running", pid)
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return 0, fmt.Errorf("stale lockfile: process %d is %s, not %s", pid, process.Executable(), constants.AppName)
	}
	return port, nil
}

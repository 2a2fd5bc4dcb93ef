// Package pid guards against concurrent daemon instances with a PID
// file under the system temp directory.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"codeberg.org/mutker/scadactl/internal/errors"
)

const pidFile = "scadactl.pid"

func path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write records the current process ID. If a PID file already exists and
// its process is still alive, ErrAlreadyRunning is returned; a stale
// file from a dead process is overwritten.
func Write() error {
	errFactory := errors.New()

	if other, err := runningPID(); err != nil {
		return err
	} else if other != 0 {
		return errFactory.WithData(errors.ErrAlreadyRunning, other)
	}

	if err := os.WriteFile(path(), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// runningPID returns the PID recorded in an existing file when that
// process is still alive, 0 otherwise.
func runningPID() (int, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(path())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrInternal, err)
	}

	pid, err := strconv.Atoi(string(raw))
	if err != nil {
		// Unparseable file, treat as stale.
		return 0, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, nil
	}

	if err := process.Signal(syscall.Signal(0)); err == nil {
		return pid, nil
	}

	return 0, nil
}

// Remove deletes the PID file. A missing file is not an error.
func Remove() error {
	if err := os.Remove(path()); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

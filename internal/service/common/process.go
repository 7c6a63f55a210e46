//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/build-installer/internal/logger"
)

// TerminateProcesses kills every running process whose executable matches one
// of names and returns how many were killed. Matching ignores case and a
// trailing ".exe" so the same configuration works on every platform.
func TerminateProcesses(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[normalizeExecutable(name)] = struct{}{}
	}

	processList, err := ps.Processes()
	if err != nil {
		return 0, err
	}

	thisProcessID := os.Getpid()
	killed := 0

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, found := wanted[normalizeExecutable(process.Executable())]; !found {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return killed, err
		}

		logger.InfoKV(ctx, "Terminating process", "pid", process.Pid(), "executable", process.Executable())

		if err = runningProcess.Kill(); err != nil {
			return killed, err
		}

		killed++
	}

	return killed, nil
}

func normalizeExecutable(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

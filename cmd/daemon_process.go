package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// runtimeState is written next to the PID file while the daemon runs so
// `daemon status` can find the API without repeating the flags.
type runtimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
	Payday    int       `json:"payday,omitempty"`
	Publishes bool      `json:"publishes_alerts"`
}

// pidFile is the path of the daemon's PID file. The state file lives at
// the same path with a .json suffix.
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

// running returns the recorded pid and whether that process is alive.
// A missing file is not an error.
func (p pidFile) running() (int, bool, error) {
	data, err := os.ReadFile(string(p)) //nolint:gosec // pid path is configured by the local user
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, processAlive(pid), nil
}

// vacant fails when a live daemon owns the file and removes stale files.
func (p pidFile) vacant() error {
	pid, alive, err := p.running()
	if err != nil {
		return err
	}
	if alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	p.clear()
	return nil
}

// claim records the current process as the daemon. The returned release
// removes both files.
func (p pidFile) claim(st runtimeState) (release func(), err error) {
	if err := p.vacant(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return nil, fmt.Errorf("create daemon directory: %w", err)
	}

	st.PID = os.Getpid()
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err == nil {
		err = os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
	}
	if err != nil {
		p.clear()
		return nil, fmt.Errorf("write daemon state: %w", err)
	}
	return p.clear, nil
}

func (p pidFile) state() (runtimeState, error) {
	var st runtimeState
	data, err := os.ReadFile(p.statePath()) //nolint:gosec // state path is configured by the local user
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (p pidFile) clear() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

// terminate sends SIGTERM to the recorded daemon and waits up to timeout
// for it to exit.
func (p pidFile) terminate(timeout time.Duration) (int, error) {
	pid, alive, err := p.running()
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		return 0, errors.New("daemon is not running")
	}
	if !alive {
		p.clear()
		return pid, fmt.Errorf("daemon (pid %d) was not running; removed stale pid file", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("signal daemon process: %w", err)
	}

	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !processAlive(pid) {
			p.clear()
			return pid, nil
		}
	}
	return pid, fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// spawnDetached re-executes the current binary with args, sending its
// output to logPath, and returns the child's pid.
func spawnDetached(args []string, logPath string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return 0, fmt.Errorf("create daemon log directory: %w", err)
	}

	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // log path is configured by the local user
	if err != nil {
		return 0, fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from the current invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return 0, fmt.Errorf("start detached daemon: %w", err)
	}
	return child.Process.Pid, nil
}

// childArgs turns the current daemon invocation into the detached
// child's arguments.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return append(out, "--child")
}

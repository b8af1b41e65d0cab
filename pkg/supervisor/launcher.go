package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/abhishekanand16/PhotoSense-AI/pkg/relay"
	"github.com/abhishekanand16/PhotoSense-AI/pkg/termguard"
)

// RelayOption configures the output relay created for each spawn.
type RelayOption = relay.Option

// Handle tracks one spawned backend process until it is reaped.
type Handle struct {
	// PID of the backend process
	PID int

	cmd     *exec.Cmd
	relay   *relay.Relay
	done    chan struct{}
	exitErr error
}

// Done is closed once the backend has exited and its output is fully drained.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ExitErr returns the wait error of the backend. Only valid after Done is
// closed; nil means a clean exit.
func (h *Handle) ExitErr() error {
	select {
	case <-h.done:
		return h.exitErr
	default:
		return nil
	}
}

// Terminate asks the backend's process group to shut down gracefully.
func (h *Handle) Terminate() error {
	return terminateTree(h.PID)
}

// Kill force-kills the backend's process group.
func (h *Handle) Kill() error {
	killTree(h.PID)
	return nil
}

// spawn starts the backend executable described by spec.
//
// The child runs with its working directory set to the executable's own
// directory (PyInstaller bundles resolve resources relative to it), a process
// group of its own, and the PhotoSense environment injected. The pid is
// recorded in the termination guard before spawn returns, so a host crash
// during readiness waiting still leaves a killable record.
func spawn(spec *Spec, logger *slog.Logger, relayOpts ...relay.Option) (*Handle, error) {
	execPath := spec.ExecutablePath()

	info, err := os.Stat(execPath)
	if err != nil {
		return nil, ErrBackendNotFound(execPath, err)
	}
	if info.IsDir() {
		return nil, ErrBackendNotExecutable(execPath, fmt.Errorf("%s is a directory", execPath))
	}

	if err := ensureExecutable(execPath, info); err != nil {
		return nil, ErrBackendNotExecutable(execPath, err)
	}

	cmd := exec.Command(execPath)
	cmd.Dir = filepath.Dir(execPath)
	cmd.Env = backendEnv(spec)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ErrSpawnFailed(spec.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, ErrSpawnFailed(spec.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, ErrSpawnFailed(spec.Name, err)
	}

	// Record before anything else can go wrong: from here on every host
	// exit path knows which pid to kill.
	termguard.Record(cmd.Process.Pid)

	r := relay.New(logger, relayOpts...)
	r.Start(stdout, stderr)

	h := &Handle{
		PID:   cmd.Process.Pid,
		cmd:   cmd,
		relay: r,
		done:  make(chan struct{}),
	}

	go func() {
		// Drain output fully before Wait closes the pipes.
		r.Wait()
		h.exitErr = cmd.Wait()
		close(h.done)
	}()

	logger.Info("backend spawned",
		"name", spec.Name,
		"pid", h.PID,
		"executable", execPath,
		"endpoint", spec.Endpoint().Addr())

	return h, nil
}

// backendEnv builds the child environment: the host's environment plus the
// PhotoSense variables, thread clamps for the embedded ML runtimes, and the
// spec's own overrides (highest precedence).
func backendEnv(spec *Spec) []string {
	env := os.Environ()

	if spec.DataDir != "" {
		env = append(env, "PHOTOSENSE_DATA_DIR="+spec.DataDir)
	}
	env = append(env,
		"PHOTOSENSE_HOST="+spec.Host,
		"PHOTOSENSE_PORT="+strconv.Itoa(spec.Port),
	)

	// Keep the inference runtimes from grabbing every core on the user's
	// machine; the backend is a background sidecar.
	threads := strconv.Itoa(workerThreads(runtime.NumCPU()))
	for _, v := range []string{
		"OMP_NUM_THREADS",
		"MKL_NUM_THREADS",
		"OPENBLAS_NUM_THREADS",
		"NUMEXPR_NUM_THREADS",
		"VECLIB_MAXIMUM_THREADS",
	} {
		env = append(env, v+"="+threads)
	}

	for k, v := range spec.Environment {
		env = append(env, k+"="+v)
	}

	return env
}

// workerThreads clamps ML worker threads to half the cores, between 1 and 4.
func workerThreads(numCPU int) int {
	n := numCPU / 2
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return n
}

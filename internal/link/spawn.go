package link

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Daemon is a spawned companion process.
type Daemon interface {
	Pid() int
	// Reap checks, without blocking, whether the process has exited.
	Reap() (exited bool, err error)
	// Kill terminates the process and waits for it.
	Kill() error
}

// Spawner starts companion processes.
type Spawner interface {
	Spawn(ctx context.Context, path string, args []string) (Daemon, error)
}

// ExecSpawner runs companions as local child processes. Output goes to the
// host's own stdout and stderr unless Stdout or Stderr are set.
type ExecSpawner struct {
	Env    []string
	Stdout *os.File
	Stderr *os.File
}

func (s ExecSpawner) Spawn(ctx context.Context, path string, args []string) (Daemon, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailure, err)
	}
	cmd := exec.Command(path, args...)
	cmd.Env = s.Env
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailure, path, err)
	}
	return &execDaemon{proc: cmd.Process, pid: cmd.Process.Pid}, nil
}

type execDaemon struct {
	proc   *os.Process
	pid    int
	reaped bool
	status unix.WaitStatus
}

func (d *execDaemon) Pid() int { return d.pid }

func (d *execDaemon) Reap() (bool, error) {
	if d.reaped {
		return true, nil
	}
	wpid, err := unix.Wait4(d.pid, &d.status, unix.WNOHANG, nil)
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		if err == unix.ECHILD {
			d.reaped = true
			return true, nil
		}
		return false, fmt.Errorf("link: wait4 pid=%d: %w", d.pid, err)
	}
	if wpid == d.pid {
		d.reaped = true
		return true, nil
	}
	return false, nil
}

func (d *execDaemon) Kill() error {
	if d.reaped {
		return nil
	}
	_ = d.proc.Kill()
	for {
		_, err := unix.Wait4(d.pid, &d.status, 0, nil)
		if err == unix.EINTR {
			continue
		}
		d.reaped = true
		if err != nil && err != unix.ECHILD {
			return fmt.Errorf("link: wait4 pid=%d: %w", d.pid, err)
		}
		return nil
	}
}

// ExitStatus describes how the process ended, once reaped.
func (d *execDaemon) ExitStatus() string {
	switch {
	case !d.reaped:
		return "running"
	case d.status.Signaled():
		return "signal " + d.status.Signal().String()
	default:
		return fmt.Sprintf("exit %d", d.status.ExitStatus())
	}
}

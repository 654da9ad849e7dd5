package link

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/danmuck/poslink/internal/reactor"
	"golang.org/x/sys/unix"
)

const (
	NetworkUnix = "unix"
	NetworkTCP  = "tcp"
)

// maxUnixPath is the usable length of sockaddr_un.sun_path.
const maxUnixPath = 107

// Address is where the host listens for its peer.
type Address struct {
	Network string
	Addr    string
}

func (a Address) String() string {
	return a.Network + ":" + a.Addr
}

// NewRunID returns an identifier unique to this host process. It keeps
// rendezvous paths of concurrent installs on one machine apart.
func NewRunID() string {
	return fmt.Sprintf("%d-%x", os.Getpid(), time.Now().UnixNano()&0xffffffff)
}

// PrinterPath returns the rendezvous socket path for printer instance n.
func PrinterPath(dir, runID string, n int) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("vtpos-%s-printer%d.sock", runID, n))
}

// listen removes any stale artifact at a, binds and listens with a backlog
// of one. The returned fd is non-blocking.
func listen(a Address) (int, error) {
	switch a.Network {
	case NetworkUnix:
		return listenUnix(a.Addr)
	case NetworkTCP:
		return listenTCP(a.Addr)
	default:
		return -1, fmt.Errorf("%w: unsupported network %q", ErrBindFailure, a.Network)
	}
}

func listenUnix(path string) (int, error) {
	if len(path) > maxUnixPath {
		return -1, fmt.Errorf("%w: socket path too long (%d bytes): %s", ErrBindFailure, len(path), path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return -1, fmt.Errorf("%w: remove stale %s: %v", ErrBindFailure, path, err)
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("%w: socket: %v", ErrBindFailure, err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: bind %s: %v", ErrBindFailure, path, err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		_ = os.Remove(path)
		return -1, fmt.Errorf("%w: listen %s: %v", ErrBindFailure, path, err)
	}
	return fd, nil
}

func listenTCP(hostport string) (int, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrBindFailure, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 0xffff {
		return -1, fmt.Errorf("%w: bad port %q", ErrBindFailure, portStr)
	}
	sa := &unix.SockaddrInet4{Port: port}
	if host != "" {
		ip := net.ParseIP(host).To4()
		if ip == nil {
			return -1, fmt.Errorf("%w: not an IPv4 address: %q", ErrBindFailure, host)
		}
		copy(sa.Addr[:], ip)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("%w: socket: %v", ErrBindFailure, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: reuseaddr: %v", ErrBindFailure, err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: bind %s: %v", ErrBindFailure, hostport, err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: listen %s: %v", ErrBindFailure, hostport, err)
	}
	return fd, nil
}

// acceptOne waits up to wait for a single connection on lfd. dead, when
// non-nil, is polled between waits so a companion that exits before
// connecting fails fast.
func acceptOne(ctx context.Context, lfd int, wait time.Duration, dead func() error) (int, error) {
	deadline := time.Now().Add(wait)
	for {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		left := time.Until(deadline)
		if left <= 0 {
			return -1, fmt.Errorf("%w: no peer within %s", ErrAcceptTimeout, wait)
		}
		ready, err := reactor.WaitReadable(lfd, min(left, reactor.MaxTick))
		if err != nil {
			return -1, err
		}
		if !ready {
			if dead != nil {
				if err := dead(); err != nil {
					return -1, err
				}
			}
			continue
		}
		nfd, _, err := unix.Accept4(lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR || err == unix.ECONNABORTED {
				continue
			}
			return -1, fmt.Errorf("link: accept: %w", err)
		}
		return nfd, nil
	}
}

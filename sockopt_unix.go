//go:build linux || freebsd || openbsd || darwin || netbsd || dragonfly

package rohc

import (
	"fmt"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// SetRecvBufferSize raises the kernel receive buffer (SO_RCVBUF) on
// the socket underlying this Conn. A real ROHC link wants enough
// kernel buffer to absorb bursts before the W-LSB windows it depends
// on start losing sync with the sender. netfd.GetFdFromConn pulls a
// raw fd off an arbitrary net.Conn to reach a syscall net.Conn itself
// doesn't expose.
func (w *Conn) SetRecvBufferSize(bytes int) error {
	fd := netfd.GetFdFromConn(w.Conn)
	if fd < 0 {
		return fmt.Errorf("rohc: underlying conn has no accessible fd")
	}
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, bytes)
}

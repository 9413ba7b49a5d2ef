//go:build linux && !rp2040

package sensor

import (
	"runtime"
	"sync"
	"unsafe"

	"telemetry-node/errcode"

	"golang.org/x/sys/unix"
)

// ioctl requests from <linux/i2c-dev.h>.
const (
	i2cRDWR = 0x0707
	i2cMRD  = 0x0001 // read flag on an i2c_msg
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	_     uint16
	buf   uintptr
}

type i2cRdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CDev is a drivers.I2C over a Linux /dev/i2c-N character device. Combined
// write+read transactions use I2C_RDWR, so the read follows a repeated start.
type I2CDev struct {
	mu   sync.Mutex
	fd   int
	path string
}

// OpenI2C opens path (e.g. "/dev/i2c-1").
func OpenI2C(path string) (*I2CDev, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: "sensor.OpenI2C", Msg: path, Err: err}
	}
	return &I2CDev{fd: fd, path: path}, nil
}

// Tx writes w then reads into r in one bus transaction. Either may be empty.
func (d *I2CDev) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{addr: addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{addr: addr, flags: i2cMRD, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))}
		n++
	}
	if n == 0 {
		return nil
	}
	data := i2cRdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(n)}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), i2cRDWR, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	runtime.KeepAlive(&msgs)
	if errno != 0 {
		return errno
	}
	return nil
}

// Close releases the device node.
func (d *I2CDev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return unix.Close(d.fd)
}

func (d *I2CDev) String() string { return d.path }

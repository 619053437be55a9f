/*Package ft232h adapts an FTDI FT232H USB bridge to the transaction interface
the ku10405 driver consumes: one full duplex SPI exchange primitive and one
digital output for the apply line.

The bridge is opened through periph.io's ftdi host driver, which needs the
FTDI D2XX library installed and the default kernel ftdi_sio driver unbound;
see https://periph.io/device/ftdi/ for host configuration.

The chip select is the bridge's hardware CS (ADBUS3), clock mode 0, and the
apply line rides on ADBUS7, matching the conventional fixture wiring.
*/
package ft232h

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/gousb"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

const (
	// DefaultAddr matches any FT232H on the bus; pass a more specific
	// fragment of the adapter's description string to pick one of several.
	DefaultAddr = "ft232h"

	// DefaultClock is the SPI clock rate the KU10405 fixtures run at.  Some
	// boards are strapped down to 1 MHz; this is not part of the protocol
	// contract, only of the wiring.
	DefaultClock = 8 * physic.MegaHertz

	// usbVID and usbPID identify the FT232H on the USB bus
	usbVID = 0x0403
	usbPID = 0x6014
)

// ErrNoAdapter is returned when no FT232H is present on the USB bus at all
var ErrNoAdapter = errors.New("no FT232H (0403:6014) on the USB bus, check cabling and power")

// Bus owns one FT232H's SPI port and apply pin.  It satisfies ku10405.Bus.
// Open one with Open; the zero value is not usable.
type Bus struct {
	port  spi.PortCloser
	conn  spi.Conn
	apply gpio.PinIO
}

// Open initializes the periph host, finds the first FT232H whose description
// contains addr (case insensitive), configures its SPI port at the given
// clock in mode 0, and claims ADBUS7 as the apply output.  USB enumeration
// flaps for a moment after an adapter is plugged in, so the search retries
// with backoff for a few seconds before giving up.
func Open(addr string, clock physic.Frequency) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ft232h: host init failed [%v]", err)
	}
	var dev *ftdi.FT232H
	find := func() error {
		for _, d := range ftdi.All() {
			h, ok := d.(*ftdi.FT232H)
			if !ok {
				continue
			}
			if addr != "" && !strings.Contains(strings.ToLower(h.String()), strings.ToLower(addr)) {
				continue
			}
			dev = h
			return nil
		}
		return errors.New("ft232h: no matching adapter")
	}
	err := backoff.Retry(find, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err != nil {
		// distinguish "adapter missing" from "adapter present but not claimed
		// by the periph driver" for the person at the bench
		if derr := Detect(); derr != nil {
			return nil, derr
		}
		return nil, fmt.Errorf("ft232h: adapter present but not claimed, is ftdi_sio unbound? [%v]", err)
	}

	port, err := dev.SPI()
	if err != nil {
		return nil, fmt.Errorf("ft232h: opening SPI port [%v]", err)
	}
	conn, err := port.Connect(clock, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("ft232h: configuring SPI port [%v]", err)
	}
	return &Bus{port: port, conn: conn, apply: dev.D7}, nil
}

// Exchange performs one full duplex transaction.  The returned bytes are the
// device's shift register contents from the previous transaction.
func (b *Bus) Exchange(w []byte) ([]byte, error) {
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetApply drives the apply line (ADBUS7) to the given level.
func (b *Bus) SetApply(level bool) error {
	return b.apply.Out(gpio.Level(level))
}

// Close releases the SPI port.
func (b *Bus) Close() error {
	return b.port.Close()
}

// Detect scans the USB bus for an FT232H without claiming it.  It returns
// ErrNoAdapter when none is present, nil when at least one is.
func Detect() error {
	ctx := gousb.NewContext()
	defer ctx.Close()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(usbVID) && desc.Product == gousb.ID(usbPID)
	})
	for _, d := range devs {
		d.Close()
	}
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		return ErrNoAdapter
	}
	return nil
}

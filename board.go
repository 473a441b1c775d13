package sx126x

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// AntennaState is the logical direction the antenna RF switch should be
// driven to, mutated only inside set_tx/set_rx/set_sleep paths.
type AntennaState uint8

const (
	AntennaSleep AntennaState = iota
	AntennaTx
	AntennaRx
)

// Board is the hardware-abstraction boundary (spec §4.A): CS/RESET edges,
// antenna switching, and the two awaitable chip events (BUSY falling, DIO1
// rising). A board declares, through RadioType/OscillatorMode/
// DIO2AntennaControl in RadioConfig, whether antenna methods are meaningful
// no-ops (DIO2-driven switch) and whether DIO3 must be programmed as TCXO
// supply control at init.
//
// Every method takes a context so the single cooperative task driving the
// radio can cancel a suspended wait; per spec §5 cancellation is only safe at
// these suspension points.
type Board interface {
	SetCSHigh(ctx context.Context) error
	SetCSLow(ctx context.Context) error
	SetResetHigh(ctx context.Context) error
	SetResetLow(ctx context.Context) error

	// SetAntenna drives the antenna switch. A DIO2-controlled board may treat
	// this as a no-op.
	SetAntenna(ctx context.Context, state AntennaState) error

	// WaitBusyLow blocks until BUSY reads low, or ctx is done.
	WaitBusyLow(ctx context.Context) error
	// WaitDIO1Rising blocks until a DIO1 rising edge is observed, or ctx is done.
	WaitDIO1Rising(ctx context.Context) error
}

// PeriphBoard is a reference Board implementation over periph.io GPIO pins,
// suitable for a Raspberry-Pi-class host talking to the radio over a header.
// It is offered as a convenience, not a requirement: any Board implementation
// satisfies the driver.
type PeriphBoard struct {
	cs    gpio.PinIO
	reset gpio.PinIO
	busy  gpio.PinIO
	dio1  gpio.PinIO
	txEn  gpio.PinIO
	rxEn  gpio.PinIO
}

// PeriphBoardPins names the GPIO pins by the names periph.io's gpioreg
// registry recognizes (e.g. "GPIO25").
type PeriphBoardPins struct {
	CS    string
	Reset string
	Busy  string
	DIO1  string
	TxEn  string
	RxEn  string
}

// NewPeriphBoard initializes the periph.io host drivers and resolves each pin
// by name, configuring directions and edge detection the way this driver's
// reference board bring-up always has.
func NewPeriphBoard(pins PeriphBoardPins) (*PeriphBoard, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sx126x: periph host init: %w", err)
	}

	cs := gpioreg.ByName(pins.CS)
	reset := gpioreg.ByName(pins.Reset)
	busy := gpioreg.ByName(pins.Busy)
	dio1 := gpioreg.ByName(pins.DIO1)
	if cs == nil || reset == nil || busy == nil || dio1 == nil {
		return nil, fmt.Errorf("sx126x: failed to resolve required GPIO pins (cs=%q reset=%q busy=%q dio1=%q)",
			pins.CS, pins.Reset, pins.Busy, pins.DIO1)
	}

	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("sx126x: configure CS pin: %w", err)
	}
	if err := reset.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("sx126x: configure RESET pin: %w", err)
	}
	if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("sx126x: configure BUSY pin: %w", err)
	}
	if err := dio1.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("sx126x: configure DIO1 pin: %w", err)
	}

	b := &PeriphBoard{cs: cs, reset: reset, busy: busy, dio1: dio1}

	if pins.TxEn != "" {
		if txEn := gpioreg.ByName(pins.TxEn); txEn != nil {
			if err := txEn.Out(gpio.Low); err != nil {
				return nil, fmt.Errorf("sx126x: configure TxEn pin: %w", err)
			}
			b.txEn = txEn
		}
	}
	if pins.RxEn != "" {
		if rxEn := gpioreg.ByName(pins.RxEn); rxEn != nil {
			if err := rxEn.Out(gpio.Low); err != nil {
				return nil, fmt.Errorf("sx126x: configure RxEn pin: %w", err)
			}
			b.rxEn = rxEn
		}
	}

	return b, nil
}

func (b *PeriphBoard) SetCSHigh(ctx context.Context) error    { return b.cs.Out(gpio.High) }
func (b *PeriphBoard) SetCSLow(ctx context.Context) error     { return b.cs.Out(gpio.Low) }
func (b *PeriphBoard) SetResetHigh(ctx context.Context) error { return b.reset.Out(gpio.High) }
func (b *PeriphBoard) SetResetLow(ctx context.Context) error  { return b.reset.Out(gpio.Low) }

// SetAntenna drives the discrete TxEn/RxEn switch pins, when present. The
// façade calls SetAntenna on every Tx/Rx/standby/sleep transition whatever
// DIO2AntennaControl says; on this reference board it is a no-op only when
// neither TxEn nor RxEn was configured.
func (b *PeriphBoard) SetAntenna(ctx context.Context, state AntennaState) error {
	if b.txEn == nil && b.rxEn == nil {
		return nil
	}
	switch state {
	case AntennaTx:
		if b.rxEn != nil {
			if err := b.rxEn.Out(gpio.Low); err != nil {
				return err
			}
		}
		if b.txEn != nil {
			return b.txEn.Out(gpio.High)
		}
	case AntennaRx:
		if b.txEn != nil {
			if err := b.txEn.Out(gpio.Low); err != nil {
				return err
			}
		}
		if b.rxEn != nil {
			return b.rxEn.Out(gpio.High)
		}
	case AntennaSleep:
		if b.txEn != nil {
			if err := b.txEn.Out(gpio.Low); err != nil {
				return err
			}
		}
		if b.rxEn != nil {
			return b.rxEn.Out(gpio.Low)
		}
	}
	return nil
}

// WaitBusyLow polls BUSY, yielding to ctx cancellation between reads, the
// same busy-check idiom this driver's SPI transport has always used.
func (b *PeriphBoard) WaitBusyLow(ctx context.Context) error {
	for {
		if b.busy.Read() == gpio.Low {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// WaitDIO1Rising runs the pin's WaitForEdge in a goroutine and returns when
// it reports an edge or when ctx is done, whichever comes first. On ctx
// cancellation the goroutine keeps waiting until an edge arrives or its
// 24-hour timeout passes.
func (b *PeriphBoard) WaitDIO1Rising(ctx context.Context) error {
	done := make(chan bool, 1)
	go func() { done <- b.dio1.WaitForEdge(24 * time.Hour) }()
	select {
	case ok := <-done:
		if !ok {
			return fmt.Errorf("sx126x: DIO1 edge wait failed")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

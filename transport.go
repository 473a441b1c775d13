package sx126x

import (
	"context"

	"periph.io/x/conn/v3/spi"
)

// transport is the SPI command/response primitive layer (spec §4.B). Every
// operation waits BUSY-low, brackets the transfer with CS-low/CS-high, and
// maps bus failures to RadioError(SPI) and pin failures to
// RadioError(DigitalOut) — invariants 1 and 2 of the data model.
type transport struct {
	spi   spi.Conn
	board Board
}

func (t *transport) withCS(ctx context.Context, fn func() error) error {
	if err := t.board.WaitBusyLow(ctx); err != nil {
		return newRadioError(ErrKindBusyWait, err)
	}
	if err := t.board.SetCSLow(ctx); err != nil {
		return newRadioError(ErrKindDigitalOut, err)
	}
	err := fn()
	if csErr := t.board.SetCSHigh(ctx); csErr != nil && err == nil {
		err = newRadioError(ErrKindDigitalOut, csErr)
	}
	return err
}

// writeCommand issues [op, payload...] with no response bytes read.
func (t *transport) writeCommand(ctx context.Context, op Opcode, payload []byte) error {
	return t.withCS(ctx, func() error {
		frame := make([]byte, 0, 1+len(payload))
		frame = append(frame, byte(op))
		frame = append(frame, payload...)
		if err := t.spi.Tx(frame, nil); err != nil {
			return newRadioError(ErrKindSPI, err)
		}
		return nil
	})
}

// readCommand issues op, a NOP byte to capture the status, then reads
// len(response) bytes. It returns the decoded status byte.
func (t *transport) readCommand(ctx context.Context, op Opcode, response []byte) (RadioStatus, error) {
	var status RadioStatus
	err := t.withCS(ctx, func() error {
		w := make([]byte, 2+len(response))
		w[0] = byte(op)
		w[1] = byte(OpNOP)
		r := make([]byte, len(w))
		if err := t.spi.Tx(w, r); err != nil {
			return newRadioError(ErrKindSPI, err)
		}
		status = decodeStatus(r[1])
		copy(response, r[2:])
		return nil
	})
	return status, err
}

// writeRegisters writes bytes starting at addr.
func (t *transport) writeRegisters(ctx context.Context, addr Register, bytes []byte) error {
	return t.withCS(ctx, func() error {
		w := make([]byte, 0, 3+len(bytes))
		w = append(w, byte(OpWriteRegister), byte(addr>>8), byte(addr))
		w = append(w, bytes...)
		if err := t.spi.Tx(w, nil); err != nil {
			return newRadioError(ErrKindSPI, err)
		}
		return nil
	})
}

// readRegisters reads len(out) bytes starting at addr.
func (t *transport) readRegisters(ctx context.Context, addr Register, out []byte) error {
	return t.withCS(ctx, func() error {
		w := make([]byte, 4+len(out))
		w[0] = byte(OpReadRegister)
		w[1] = byte(addr >> 8)
		w[2] = byte(addr)
		w[3] = byte(OpNOP)
		r := make([]byte, len(w))
		if err := t.spi.Tx(w, r); err != nil {
			return newRadioError(ErrKindSPI, err)
		}
		copy(out, r[4:])
		return nil
	})
}

// writeBuffer writes bytes into the radio data buffer at offset off.
func (t *transport) writeBuffer(ctx context.Context, off uint8, bytes []byte) error {
	return t.withCS(ctx, func() error {
		w := make([]byte, 0, 2+len(bytes))
		w = append(w, byte(OpWriteBuffer), off)
		w = append(w, bytes...)
		if err := t.spi.Tx(w, nil); err != nil {
			return newRadioError(ErrKindSPI, err)
		}
		return nil
	})
}

// readBuffer reads len(out) bytes from the radio data buffer at offset off.
func (t *transport) readBuffer(ctx context.Context, off uint8, out []byte) error {
	return t.withCS(ctx, func() error {
		w := make([]byte, 3+len(out))
		w[0] = byte(OpReadBuffer)
		w[1] = off
		w[2] = byte(OpNOP)
		r := make([]byte, len(w))
		if err := t.spi.Tx(w, r); err != nil {
			return newRadioError(ErrKindSPI, err)
		}
		copy(out, r[3:])
		return nil
	})
}

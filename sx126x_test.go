package sx126x

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var errBoom = errors.New("boom")

// MockSPI records every transaction and can play back a queue of responses,
// grounded on the teacher driver's test_helper.go MockSPI.
type MockSPI struct {
	mu        sync.Mutex
	TxData    []byte
	Responses [][]byte // each Tx call with a non-nil r consumes one response, copied into r
	ReturnErr error
}

func (m *MockSPI) Tx(w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TxData = append(m.TxData, w...)
	if m.ReturnErr != nil {
		return m.ReturnErr
	}
	if r != nil && len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		copy(r, resp)
	}
	return nil
}

func (m *MockSPI) Duplex() conn.Duplex            { return conn.Half }
func (m *MockSPI) TxPackets(p []spi.Packet) error { return nil }
func (m *MockSPI) String() string                 { return "MockSPI" }
func (m *MockSPI) Baud() physic.Frequency         { return 0 }

// FakeBoard records GPIO edges and antenna state, with injectable DIO1
// sequencing for end-to-end scenario tests (WaitBusyLow always succeeds),
// grounded on the Board trait in the original driver's sx126x/mod.rs.
type FakeBoard struct {
	mu sync.Mutex

	CSHighCount, CSLowCount       int
	ResetHighCount, ResetLowCount int
	AntennaHistory                []AntennaState

	// IRQQueue is drained one entry per WaitDIO1Rising call; once empty,
	// WaitDIO1Rising blocks until ctx is done.
	IRQQueue []struct{}
}

func (b *FakeBoard) SetCSHigh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CSHighCount++
	return nil
}
func (b *FakeBoard) SetCSLow(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CSLowCount++
	return nil
}
func (b *FakeBoard) SetResetHigh(ctx context.Context) error {
	b.ResetHighCount++
	return nil
}
func (b *FakeBoard) SetResetLow(ctx context.Context) error {
	b.ResetLowCount++
	return nil
}
func (b *FakeBoard) SetAntenna(ctx context.Context, state AntennaState) error {
	b.AntennaHistory = append(b.AntennaHistory, state)
	return nil
}
func (b *FakeBoard) WaitBusyLow(ctx context.Context) error { return nil }
func (b *FakeBoard) WaitDIO1Rising(ctx context.Context) error {
	b.mu.Lock()
	if len(b.IRQQueue) == 0 {
		b.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	b.IRQQueue = b.IRQQueue[1:]
	b.mu.Unlock()
	return nil
}

func newTestRadio(spiConn spi.Conn, board Board) *Radio {
	cfg := DefaultRadioConfig()
	return New(spiConn, board, cfg)
}

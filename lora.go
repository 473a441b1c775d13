package sx126x

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/spi"
)

// Radio is the LoRa façade and driver state (spec §3 "Driver state", §4.E).
// It exclusively owns its SPI bus and Board for its lifetime: no sharing, no
// interior mutability across goroutines, all access serialized by whichever
// single goroutine drives the MAC.
type Radio struct {
	transport *transport
	config    RadioConfig
	log       *slog.Logger

	operatingMode     RadioMode
	packetType        PacketType
	imageCalibrated   bool
	frequencyPrepared bool // invariant 5: set_packet_type issued at least once
	modulationParams  *ModulationParams
	packetParams      *PacketParams
	frequencyError    int32
	lastPacketStatus  PacketStatus
}

// New constructs a Radio over an SPI connection and a Board, in ModeSleep
// until Init is called, matching the chip's power-on state.
func New(conn spi.Conn, board Board, cfg RadioConfig) *Radio {
	return &Radio{
		transport:     &transport{spi: conn, board: board},
		config:        cfg,
		log:           slog.With("lib", "sx126x"),
		operatingMode: ModeSleep,
		packetType:    PacketTypeLoRa,
	}
}

// Init drives the chip's reset/wakeup sequence (spec §4.E init()).
func (r *Radio) Init(ctx context.Context) error {
	log := r.log.With("func", "Init")
	log.Debug("resetting radio")

	if err := r.transport.board.SetResetLow(ctx); err != nil {
		return newRadioError(ErrKindDigitalOut, err)
	}
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := r.transport.board.SetResetHigh(ctx); err != nil {
		return newRadioError(ErrKindDigitalOut, err)
	}
	if err := r.transport.board.WaitBusyLow(ctx); err != nil {
		return newRadioError(ErrKindBusyWait, err)
	}

	if err := r.SetStandby(ctx, StandbyRC); err != nil {
		return fmt.Errorf("sx126x: init standby: %w", err)
	}

	if r.config.OscillatorMode == OscillatorTCXO {
		if err := r.SetTCXOMode(ctx, r.config.TcxoVoltage, 320); err != nil {
			return fmt.Errorf("sx126x: init tcxo: %w", err)
		}
	}

	if err := r.SetRFSwitchMode(ctx, r.config.DIO2AntennaControl); err != nil {
		return fmt.Errorf("sx126x: init rf switch: %w", err)
	}

	r.imageCalibrated = false
	log.Info("radio initialized")
	return nil
}

// SetLoRaModem selects the LoRa packet type and programs the public/private
// network sync word (spec §4.E set_lora_modem).
func (r *Radio) SetLoRaModem(ctx context.Context, enablePublicNetwork bool) error {
	if err := r.SetPacketType(ctx, PacketTypeLoRa); err != nil {
		return err
	}
	syncWord := uint16(0x1424)
	if enablePublicNetwork {
		syncWord = 0x3444
	}
	return r.transport.writeRegisters(ctx, RegLoRaSyncWordMsb, []byte{byte(syncWord >> 8), byte(syncWord)})
}

// TxSettings bundles the parameters set_tx_config accepts.
type TxSettings struct {
	Power           int8
	SpreadingFactor SpreadingFactor
	Bandwidth       Bandwidth
	CodingRate      CodingRate
	PreambleLength  uint16
	FixedLen        bool
	CRC             bool
	IQInverted      bool
	Ramp            RampTime
}

// SetTxConfig stores and pushes the modulation/packet/power configuration for
// transmission (spec §4.E set_tx_config).
func (r *Radio) SetTxConfig(ctx context.Context, s TxSettings) error {
	if !s.SpreadingFactor.valid() {
		return newRadioError(ErrKindInvalidSpreadingFactor, nil)
	}
	if !s.CodingRate.valid() {
		return newRadioError(ErrKindInvalidCodingRate, nil)
	}
	if s.Bandwidth.HzOf() == 0 {
		return newRadioError(ErrKindInvalidBandwidth, nil)
	}

	mp := ModulationParams{
		SpreadingFactor: s.SpreadingFactor,
		Bandwidth:       s.Bandwidth,
		CodingRate:      s.CodingRate,
	}.withDerivedLDRO()
	r.modulationParams = &mp

	pp := PacketParams{
		PreambleLength: s.PreambleLength,
		ImplicitHeader: s.FixedLen,
		PayloadLength:  0,
		CRCOn:          s.CRC,
		IQInverted:     s.IQInverted,
	}
	r.packetParams = &pp

	if err := r.SetModulationParams(ctx, mp); err != nil {
		return err
	}
	if err := r.SetPacketParams(ctx, pp); err != nil {
		return err
	}
	if err := r.SetTxParams(ctx, s.Power, s.Ramp); err != nil {
		return err
	}
	if err := r.SetDIOIrqParams(ctx, IrqTxDone|IrqTimeout, IrqTxDone|IrqTimeout, IrqNone, IrqNone); err != nil {
		return err
	}
	return r.SetBufferBaseAddress(ctx, 0, 0)
}

// RxSettings bundles the parameters set_rx_config accepts.
type RxSettings struct {
	SpreadingFactor SpreadingFactor
	Bandwidth       Bandwidth
	CodingRate      CodingRate
	PreambleLength  uint16
	SymbTimeout     uint16
	FixedLen        bool
	PayloadLength   uint8
	CRC             bool
	IQInverted      bool
	FreqHop         bool
	HopPeriod       uint8
	RxContinuous    bool
	BoostedGain     bool
}

// SetRxConfig stores and pushes the modulation/packet configuration for
// reception (spec §4.E set_rx_config).
func (r *Radio) SetRxConfig(ctx context.Context, s RxSettings) error {
	if !s.SpreadingFactor.valid() {
		return newRadioError(ErrKindInvalidSpreadingFactor, nil)
	}
	if !s.CodingRate.valid() {
		return newRadioError(ErrKindInvalidCodingRate, nil)
	}
	if s.Bandwidth.HzOf() == 0 {
		return newRadioError(ErrKindInvalidBandwidth, nil)
	}

	mp := ModulationParams{
		SpreadingFactor: s.SpreadingFactor,
		Bandwidth:       s.Bandwidth,
		CodingRate:      s.CodingRate,
	}.withDerivedLDRO()
	r.modulationParams = &mp

	pp := PacketParams{
		PreambleLength: s.PreambleLength,
		ImplicitHeader: s.FixedLen,
		PayloadLength:  s.PayloadLength,
		CRCOn:          s.CRC,
		IQInverted:     s.IQInverted,
	}
	r.packetParams = &pp

	if err := r.SetModulationParams(ctx, mp); err != nil {
		return err
	}
	if err := r.SetPacketParams(ctx, pp); err != nil {
		return err
	}
	if err := r.SetLoRaSymbNumTimeout(ctx, s.SymbTimeout); err != nil {
		return err
	}
	if err := r.SetDIOIrqParams(ctx, IrqRxDone|IrqTimeout|IrqCrcErr|IrqHeaderErr, IrqRxDone|IrqTimeout|IrqCrcErr|IrqHeaderErr, IrqNone, IrqNone); err != nil {
		return err
	}
	if err := r.SetBufferBaseAddress(ctx, 0, 0); err != nil {
		return err
	}
	if s.BoostedGain {
		return r.setRxBoosted(ctx)
	}
	return nil
}

// SetChannel retunes the carrier frequency without touching any other
// configuration, the separate call the PhyRxTx adapter makes between
// transmit/receive turns on a MAC that hops channels.
func (r *Radio) SetChannel(ctx context.Context, freqHz uint32) error {
	return r.SetRFFrequency(ctx, freqHz)
}

// SetMaxPayloadLength overrides the payload-length field of the last-pushed
// packet params without re-deriving modulation/packet configuration,
// matching the PhyRxTx adapter's per-transaction override of buffer length.
func (r *Radio) SetMaxPayloadLength(ctx context.Context, length uint8) error {
	if r.packetParams == nil {
		return newRadioError(ErrKindPacketParamsMissing, nil)
	}
	pp := *r.packetParams
	pp.PayloadLength = length
	r.packetParams = &pp
	return r.SetPacketParams(ctx, pp)
}

// Send writes the payload into the radio buffer and starts a transmission
// (spec §4.E send()).
func (r *Radio) Send(ctx context.Context, payload []byte, timeout uint32) error {
	if err := r.transport.writeBuffer(ctx, 0, payload); err != nil {
		return err
	}
	return r.SetTx(ctx, timeout)
}

// Rx starts a reception with the given chip timeout (spec §4.E rx()).
func (r *Radio) Rx(ctx context.Context, timeout uint32) error {
	return r.SetRx(ctx, timeout)
}

// GetLatestPacketStatus returns the packet status decoded by the most recent
// successful RxDone processed via ProcessIRQ.
func (r *Radio) GetLatestPacketStatus() PacketStatus { return r.lastPacketStatus }

// ProcessIRQ awaits the next DIO1 rising edge, reads and clears IRQ status,
// and decodes the outcome (spec §4.E process_irq). rxBuffer receives the
// payload on a successful RxDone; it may be nil when not receiving.
func (r *Radio) ProcessIRQ(ctx context.Context, rxBuffer []byte) (n int, err error) {
	log := r.log.With("func", "ProcessIRQ")
	for {
		if err := r.transport.board.WaitDIO1Rising(ctx); err != nil {
			return 0, newRadioError(ErrKindDio1Wait, err)
		}

		irq, err := r.GetIrqStatus(ctx)
		if err != nil {
			return 0, err
		}
		if err := r.ClearIrqStatus(ctx, irq); err != nil {
			return 0, err
		}

		switch {
		case irq.Has(IrqTxDone):
			r.operatingMode = ModeStandbyRC
			return 0, nil

		case irq.Has(IrqRxDone):
			r.operatingMode = ModeStandbyRC
			if irq.Has(IrqCrcErr) {
				return 0, ErrReceiveCrc
			}
			if irq.Has(IrqHeaderErr) {
				return 0, ErrHeaderInvalid
			}
			payloadLen, offset, err := r.GetRxBufferStatus(ctx)
			if err != nil {
				return 0, err
			}
			if int(payloadLen) > len(rxBuffer) {
				return 0, newPayloadSizeMismatch(int(payloadLen), len(rxBuffer))
			}
			if err := r.transport.readBuffer(ctx, offset, rxBuffer[:payloadLen]); err != nil {
				return 0, err
			}
			status, err := r.GetPacketStatus(ctx)
			if err != nil {
				return 0, err
			}
			r.lastPacketStatus = status
			return int(payloadLen), nil

		case irq.Has(IrqTimeout):
			if r.operatingMode == ModeTransmit {
				r.operatingMode = ModeStandbyRC
				return 0, ErrTransmitTimeout
			}
			r.operatingMode = ModeStandbyRC
			return 0, ErrReceiveTimeout

		case irq.Has(IrqCadDone):
			return 0, nil

		default:
			log.Debug("unexpected IRQ bits, continuing to await", "irq", irq)
			continue
		}
	}
}

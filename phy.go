package sx126x

import "context"

// Timings are the fixed RX-window constants the PhyRxTx adapter exposes to
// the MAC (spec §4.F, §6).
type Timings struct{}

// RxWindowOffsetMs is the MAC's RX window open offset relative to the
// expected arrival time.
func (Timings) RxWindowOffsetMs() int32 { return -50 }

// RxWindowDurationMs is how long the MAC should keep its RX window open.
func (Timings) RxWindowDurationMs() uint32 { return 1050 }

// rxChipTimeout is the fixed 90-second chip-level timeout PhyRxTx.Rx applies
// to every reception, regardless of the MAC's own window bookkeeping,
// matching the original driver's adapter.
const rxChipTimeout = 90 * 1000 * 64 // 90s in 15.625us ticks, chip timeout units

// PhyRxTx adapts a Radio to the tx(config,buf)/rx(config,&mut buf) shape a
// LoRaWAN MAC consumes (spec §4.F).
type PhyRxTx struct {
	Timings
	radio *Radio
}

// NewPhyRxTx wraps radio for MAC consumption.
func NewPhyRxTx(radio *Radio) *PhyRxTx { return &PhyRxTx{radio: radio} }

// Tx pushes TxSettings, retunes to freqHz, overrides the payload length for
// this transmission, sends buf, and waits for TxDone/Timeout. It returns 0
// for the tx time; the MAC derives timing from its own clock (spec §4.F).
func (p *PhyRxTx) Tx(ctx context.Context, cfg TxSettings, freqHz uint32, buf []byte) (uint32, error) {
	if err := p.radio.SetTxConfig(ctx, cfg); err != nil {
		return 0, err
	}
	if err := p.radio.SetMaxPayloadLength(ctx, uint8(len(buf))); err != nil {
		return 0, err
	}
	if err := p.radio.SetChannel(ctx, freqHz); err != nil {
		return 0, err
	}
	if err := p.radio.Send(ctx, buf, 0xFFFFFF); err != nil {
		return 0, err
	}
	if _, err := p.radio.ProcessIRQ(ctx, nil); err != nil {
		return 0, err
	}
	return 0, nil
}

// Rx pushes RxSettings with a fixed 90-second chip timeout, retunes to
// freqHz, overrides the payload length capacity, waits for RxDone/Timeout,
// and returns the actual payload length and decoded signal quality
// (spec §4.F).
func (p *PhyRxTx) Rx(ctx context.Context, cfg RxSettings, freqHz uint32, buf []byte) (int, RxQuality, error) {
	if err := p.radio.SetRxConfig(ctx, cfg); err != nil {
		return 0, RxQuality{}, err
	}
	if err := p.radio.SetMaxPayloadLength(ctx, uint8(len(buf))); err != nil {
		return 0, RxQuality{}, err
	}
	if err := p.radio.SetChannel(ctx, freqHz); err != nil {
		return 0, RxQuality{}, err
	}
	if err := p.radio.Rx(ctx, rxChipTimeout); err != nil {
		return 0, RxQuality{}, err
	}
	n, err := p.radio.ProcessIRQ(ctx, buf)
	if err != nil {
		return 0, RxQuality{}, err
	}
	status := p.radio.GetLatestPacketStatus()
	return n, RxQuality{RSSI: status.RSSI, SNR: status.SNR}, nil
}

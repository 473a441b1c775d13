package sx126x

import (
	"context"
	"fmt"
)

// --- Fixed-point frequency synthesis (spec §4.D "PLL step conversion") ---

const (
	xtalFreqHz      = 32_000_000
	pllStepShift    = 14
	pllStepScaled   = xtalFreqHz >> 11 // XTAL >> (25 - SHIFT)
)

// convertFreqHzToPLLStep implements the 14-bit-shifted fixed-point multiply
// by 2^25/XTAL with round-to-nearest, exactly as datasheet §13.4.1 requires.
func convertFreqHzToPLLStep(freqHz uint32) uint32 {
	stepsInt := freqHz / pllStepScaled
	stepsFrac := freqHz - stepsInt*pllStepScaled
	return (stepsInt << pllStepShift) + (((stepsFrac << pllStepShift) + pllStepScaled/2) / pllStepScaled)
}

// --- SetStandby / SetSleep / SetFS ---

// SetStandby enters RC or XOSC standby (opcode 0x80).
func (r *Radio) SetStandby(ctx context.Context, mode StandbyMode) error {
	log := r.log.With("func", "SetStandby", "mode", mode)
	log.Debug("set standby")
	if err := r.transport.writeCommand(ctx, OpSetStandby, []byte{byte(mode)}); err != nil {
		return fmt.Errorf("sx126x: SetStandby: %w", err)
	}
	if mode == StandbyXOSC {
		r.operatingMode = ModeStandbyXOSC
	} else {
		r.operatingMode = ModeStandbyRC
	}
	if err := r.transport.board.SetAntenna(ctx, AntennaSleep); err != nil {
		return newRadioError(ErrKindDigitalOut, err)
	}
	log.Info("standby set")
	return nil
}

// SetSleep enters sleep mode (opcode 0x84). Legal only from a standby state
// per the operating-mode state machine. A cold start (the default) clears
// imageCalibrated, since the chip loses its image-rejection calibration on
// exit unless warm-started (invariant 3).
func (r *Radio) SetSleep(ctx context.Context, params SleepParams) error {
	log := r.log.With("func", "SetSleep")
	log.Debug("set sleep")
	if err := r.transport.board.SetAntenna(ctx, AntennaSleep); err != nil {
		return newRadioError(ErrKindDigitalOut, err)
	}
	if err := r.transport.writeCommand(ctx, OpSetSleep, []byte{byte(params)}); err != nil {
		return fmt.Errorf("sx126x: SetSleep: %w", err)
	}
	r.operatingMode = ModeSleep
	if params != SleepWarmStart {
		r.imageCalibrated = false
	}
	log.Info("sleep set")
	return nil
}

// SetFS enters frequency-synthesis mode (opcode 0xC1). Per the declared
// design-note resolution, the antenna is left in its current state: FS is
// not itself a Tx or Rx condition.
func (r *Radio) SetFS(ctx context.Context) error {
	log := r.log.With("func", "SetFS")
	log.Debug("set FS")
	if err := r.transport.writeCommand(ctx, OpSetFS, nil); err != nil {
		return fmt.Errorf("sx126x: SetFS: %w", err)
	}
	r.operatingMode = ModeFrequencySynthesis
	log.Info("FS set")
	return nil
}

// checkDeviceReady wakes the chip if it is currently Sleep or
// ReceiveDutyCycle, then waits BUSY-low (spec §4.E sub_check_device_ready).
func (r *Radio) checkDeviceReady(ctx context.Context) error {
	if r.operatingMode == ModeSleep || r.operatingMode == ModeReceiveDutyCycle {
		if err := r.SetStandby(ctx, StandbyRC); err != nil {
			return err
		}
	}
	if err := r.transport.board.WaitBusyLow(ctx); err != nil {
		return newRadioError(ErrKindBusyWait, err)
	}
	return nil
}

// --- SetTx / SetRx / SetRxDutyCycle / SetCAD ---

func packTimeout24(timeout uint32) []byte {
	return []byte{byte(timeout >> 16), byte(timeout >> 8), byte(timeout)}
}

// SetTx sets the antenna to Tx, enters Transmit mode, and issues the 24-bit
// packed timeout (spec §4.D set_tx).
func (r *Radio) SetTx(ctx context.Context, timeout uint32) error {
	log := r.log.With("func", "SetTx", "timeout", timeout)
	log.Debug("set tx")
	if err := r.checkDeviceReady(ctx); err != nil {
		return err
	}
	if err := r.transport.board.SetAntenna(ctx, AntennaTx); err != nil {
		return newRadioError(ErrKindDigitalOut, err)
	}
	r.operatingMode = ModeTransmit
	if err := r.transport.writeCommand(ctx, OpSetTx, packTimeout24(timeout)); err != nil {
		return fmt.Errorf("sx126x: SetTx: %w", err)
	}
	log.Info("tx started")
	return nil
}

// SetRx sets the antenna to Rx, writes the normal-sensitivity RxGain, enters
// Receive mode, and issues the 24-bit packed timeout (spec §4.D set_rx).
func (r *Radio) SetRx(ctx context.Context, timeout uint32) error {
	log := r.log.With("func", "SetRx", "timeout", timeout)
	log.Debug("set rx")
	if err := r.checkDeviceReady(ctx); err != nil {
		return err
	}
	if err := r.transport.board.SetAntenna(ctx, AntennaRx); err != nil {
		return newRadioError(ErrKindDigitalOut, err)
	}
	if err := r.transport.writeRegisters(ctx, RegRxGain, []byte{0x94}); err != nil {
		return fmt.Errorf("sx126x: SetRx rx gain: %w", err)
	}
	r.operatingMode = ModeReceive
	if err := r.transport.writeCommand(ctx, OpSetRx, packTimeout24(timeout)); err != nil {
		return fmt.Errorf("sx126x: SetRx: %w", err)
	}
	log.Info("rx started")
	return nil
}

// setRxBoosted writes the +~3 dB boosted-gain RxGain value (0x96), at the
// cost of +2 mA current draw. It only writes the register: it does not set
// the antenna, change operatingMode or issue SetRx, and a later SetRx writes
// the normal-sensitivity value 0x94 back to RxGain.
func (r *Radio) setRxBoosted(ctx context.Context) error {
	return r.transport.writeRegisters(ctx, RegRxGain, []byte{0x96})
}

// SetRxDutyCycle issues the duty-cycled receive command (opcode 0x94).
func (r *Radio) SetRxDutyCycle(ctx context.Context, rxPeriod, sleepPeriod uint32) error {
	log := r.log.With("func", "SetRxDutyCycle")
	log.Debug("set rx duty cycle")
	payload := append(packTimeout24(rxPeriod), packTimeout24(sleepPeriod)...)
	if err := r.transport.writeCommand(ctx, OpSetRxDutyCycle, payload); err != nil {
		return fmt.Errorf("sx126x: SetRxDutyCycle: %w", err)
	}
	r.operatingMode = ModeReceiveDutyCycle
	log.Info("rx duty cycle set")
	return nil
}

// SetCAD starts Channel Activity Detection (opcode 0xC5).
func (r *Radio) SetCAD(ctx context.Context) error {
	log := r.log.With("func", "SetCAD")
	log.Debug("set cad")
	if err := r.transport.writeCommand(ctx, OpSetCAD, nil); err != nil {
		return fmt.Errorf("sx126x: SetCAD: %w", err)
	}
	r.operatingMode = ModeChannelActivityDetection
	log.Info("cad started")
	return nil
}

// SetTxContinuousWave puts the radio into continuous-wave test mode.
func (r *Radio) SetTxContinuousWave(ctx context.Context) error {
	if err := r.transport.writeCommand(ctx, OpSetTxContinuousWave, nil); err != nil {
		return fmt.Errorf("sx126x: SetTxContinuousWave: %w", err)
	}
	r.operatingMode = ModeTransmit
	return nil
}

// SetTxContinuousPreamble puts the radio into continuous-preamble test mode.
func (r *Radio) SetTxContinuousPreamble(ctx context.Context) error {
	if err := r.transport.writeCommand(ctx, OpSetTxContinuousPreamble, nil); err != nil {
		return fmt.Errorf("sx126x: SetTxContinuousPreamble: %w", err)
	}
	r.operatingMode = ModeTransmit
	return nil
}

// --- Packet type ---

// SetPacketType selects the modem (opcode 0x8A). Satisfies invariant 5 by
// marking frequency-setting preconditioned.
func (r *Radio) SetPacketType(ctx context.Context, pt PacketType) error {
	log := r.log.With("func", "SetPacketType", "packetType", pt)
	log.Debug("set packet type")
	if err := r.transport.writeCommand(ctx, OpSetPacketType, []byte{byte(pt)}); err != nil {
		return fmt.Errorf("sx126x: SetPacketType: %w", err)
	}
	r.packetType = pt
	r.frequencyPrepared = true
	log.Info("packet type set")
	return nil
}

// GetPacketType reads back the currently selected modem (opcode 0x11).
func (r *Radio) GetPacketType(ctx context.Context) (PacketType, error) {
	resp := make([]byte, 1)
	if _, err := r.transport.readCommand(ctx, OpGetPacketType, resp); err != nil {
		return 0, fmt.Errorf("sx126x: GetPacketType: %w", err)
	}
	return PacketType(resp[0]), nil
}

// --- Frequency / calibration ---

// calibrationBandFor picks the precomputed band-pair bytes for freqHz
// (spec §4.D calibrate_image thresholds).
func calibrationBandFor(freqHz uint32) [2]byte {
	switch {
	case freqHz > 900_000_000:
		return [2]byte{0xE1, 0xE9}
	case freqHz > 850_000_000:
		return [2]byte{0xD7, 0xDB}
	case freqHz > 770_000_000:
		return [2]byte{0xC1, 0xC5}
	case freqHz > 460_000_000:
		return [2]byte{0x75, 0x81}
	case freqHz > 425_000_000:
		return [2]byte{0x6B, 0x6F}
	default:
		return [2]byte{0x00, 0x00}
	}
}

// CalibrateImage programs the image-rejection calibration band for freqHz
// (spec §4.D calibrate_image).
func (r *Radio) CalibrateImage(ctx context.Context, freqHz uint32) error {
	log := r.log.With("func", "CalibrateImage", "freqHz", freqHz)
	log.Debug("calibrate image")
	band := calibrationBandFor(freqHz)
	if err := r.transport.writeCommand(ctx, OpCalibrateImage, band[:]); err != nil {
		return fmt.Errorf("sx126x: CalibrateImage: %w", err)
	}
	r.imageCalibrated = true
	log.Info("image calibrated")
	return nil
}

// Calibrate runs the requested calibration blocks (opcode 0x89).
func (r *Radio) Calibrate(ctx context.Context, params CalibrationParams) error {
	if err := r.transport.writeCommand(ctx, OpCalibrate, []byte{byte(params)}); err != nil {
		return fmt.Errorf("sx126x: Calibrate: %w", err)
	}
	return nil
}

// SetRFFrequency calibrates the image band (if not already calibrated this
// session) and writes the PLL-step-encoded carrier frequency
// (spec §4.D set_rf_frequency, invariant 5, invariant 3).
func (r *Radio) SetRFFrequency(ctx context.Context, freqHz uint32) error {
	if !r.frequencyPrepared {
		return fmt.Errorf("sx126x: SetRFFrequency called before SetPacketType")
	}
	log := r.log.With("func", "SetRFFrequency", "freqHz", freqHz)
	log.Debug("set rf frequency")

	if !r.imageCalibrated {
		if err := r.CalibrateImage(ctx, freqHz); err != nil {
			return err
		}
	}

	steps := convertFreqHzToPLLStep(freqHz)
	payload := []byte{byte(steps >> 24), byte(steps >> 16), byte(steps >> 8), byte(steps)}
	if err := r.transport.writeCommand(ctx, OpSetRFFrequency, payload); err != nil {
		return fmt.Errorf("sx126x: SetRFFrequency: %w", err)
	}
	log.Info("rf frequency set")
	return nil
}

// --- TX power / PA config ---

// SetPAConfig issues the raw PA configuration command (opcode 0x95).
func (r *Radio) SetPAConfig(ctx context.Context, paDutyCycle, hpMax, deviceSel, paLut byte) error {
	payload := []byte{paDutyCycle, hpMax, deviceSel, paLut}
	if err := r.transport.writeCommand(ctx, OpSetPAConfig, payload); err != nil {
		return fmt.Errorf("sx126x: SetPAConfig: %w", err)
	}
	return nil
}

// SetTxParams clamps power to the chip's supported range, applies the
// SX1261/SX1262 PA configuration branch, and issues SetTxParams
// (spec §4.D set_tx_params). The negative-power i8->u8 conversion uses Go's
// defined two's-complement uint8(int8(x)) conversion, matching the original
// driver's "as u8" cast bit-for-bit (spec §9 open question).
func (r *Radio) SetTxParams(ctx context.Context, power int8, ramp RampTime) error {
	log := r.log.With("func", "SetTxParams", "power", power, "ramp", ramp)
	log.Debug("set tx params")

	switch r.config.RadioType {
	case RadioTypeSX1261:
		if power == 15 {
			if err := r.SetPAConfig(ctx, 0x06, 0x00, 0x01, 0x01); err != nil {
				return err
			}
		} else {
			if err := r.SetPAConfig(ctx, 0x04, 0x00, 0x01, 0x01); err != nil {
				return err
			}
		}
		if power < -17 {
			power = -17
		}
		if power > 14 {
			power = 14
		}

	case RadioTypeSX1262:
		if r.config.Workarounds.TxClamp {
			if err := r.ErrataTxClamp(ctx, true); err != nil {
				return err
			}
		}
		if err := r.SetPAConfig(ctx, 0x04, 0x07, 0x00, 0x01); err != nil {
			return err
		}
		if power < -9 {
			power = -9
		}
		if power > 22 {
			power = 22
		}
	}

	payload := []byte{uint8(power), byte(ramp)}
	if err := r.transport.writeCommand(ctx, OpSetTxParams, payload); err != nil {
		return fmt.Errorf("sx126x: SetTxParams: %w", err)
	}
	log.Info("tx params set")
	return nil
}

// --- Modulation / packet params ---

// SetModulationParams forces LoRa packet type as a side effect (matching the
// original driver) and writes the four LoRa modulation bytes
// (spec §4.D, §4.E set_tx_config/set_rx_config).
func (r *Radio) SetModulationParams(ctx context.Context, mp ModulationParams) error {
	if err := r.SetPacketType(ctx, PacketTypeLoRa); err != nil {
		return err
	}
	log := r.log.With("func", "SetModulationParams", "sf", mp.SpreadingFactor, "bw", mp.Bandwidth, "cr", mp.CodingRate)
	log.Debug("set modulation params")

	ldro := byte(0)
	if mp.LowDataRateOptimize {
		ldro = 1
	}
	payload := []byte{byte(mp.SpreadingFactor), byte(mp.Bandwidth), byte(mp.CodingRate), ldro}
	if err := r.transport.writeCommand(ctx, OpSetModulationParams, payload); err != nil {
		return fmt.Errorf("sx126x: SetModulationParams: %w", err)
	}
	if r.config.Workarounds.ModulationQuality {
		if err := r.ErrataModulationQuality(ctx, mp.Bandwidth); err != nil {
			return err
		}
	}
	log.Info("modulation params set")
	return nil
}

// SetPacketParams forces LoRa packet type as a side effect and writes the
// LoRa packet-params bytes (spec §4.D, §4.E).
func (r *Radio) SetPacketParams(ctx context.Context, pp PacketParams) error {
	if err := r.SetPacketType(ctx, PacketTypeLoRa); err != nil {
		return err
	}
	log := r.log.With("func", "SetPacketParams")
	log.Debug("set packet params")

	headerType := byte(0x00)
	if pp.ImplicitHeader {
		headerType = 0x01
	}
	crc := byte(0x00)
	if pp.CRCOn {
		crc = 0x01
	}
	iq := byte(0x00)
	if pp.IQInverted {
		iq = 0x01
	}
	payload := []byte{
		byte(pp.PreambleLength >> 8), byte(pp.PreambleLength),
		headerType,
		pp.PayloadLength,
		crc,
		iq,
	}
	if err := r.transport.writeCommand(ctx, OpSetPacketParams, payload); err != nil {
		return fmt.Errorf("sx126x: SetPacketParams: %w", err)
	}
	if pp.ImplicitHeader && r.config.Workarounds.ImplicitTimeout {
		if err := r.ErrataImplicitTimeout(ctx); err != nil {
			return err
		}
	}
	if r.config.Workarounds.InvertedIQ {
		if err := r.ErrataInvertedIQ(ctx, pp.IQInverted); err != nil {
			return err
		}
	}
	log.Info("packet params set")
	return nil
}

// SetCADParams configures Channel Activity Detection (opcode 0x88).
func (r *Radio) SetCADParams(ctx context.Context, symbolNum byte, detPeak, detMin byte, exitMode CADExitMode, timeout uint32) error {
	payload := append([]byte{symbolNum, detPeak, detMin, byte(exitMode)}, packTimeout24(timeout)...)
	if err := r.transport.writeCommand(ctx, OpSetCADParams, payload); err != nil {
		return fmt.Errorf("sx126x: SetCADParams: %w", err)
	}
	return nil
}

// SetBufferBaseAddress sets the TX and RX buffer base addresses (opcode 0x8F).
func (r *Radio) SetBufferBaseAddress(ctx context.Context, txBase, rxBase uint8) error {
	if err := r.transport.writeCommand(ctx, OpSetBufferBaseAddress, []byte{txBase, rxBase}); err != nil {
		return fmt.Errorf("sx126x: SetBufferBaseAddress: %w", err)
	}
	return nil
}

// --- LoRa symbol-number timeout ---

// SetLoRaSymbNumTimeout encodes n<=248 as mantissa/exponent m*2^(2e+1) with
// m<=31 (spec §4.D set_lora_symb_num_timeout, §8 property 5).
func (r *Radio) SetLoRaSymbNumTimeout(ctx context.Context, n uint16) error {
	mant, exp := encodeSymbNumTimeout(n)
	payload := []byte{mant << uint(2*exp+1)}
	if err := r.transport.writeCommand(ctx, OpSetLoRaSymbTimeout, payload); err != nil {
		return fmt.Errorf("sx126x: SetLoRaSymbNumTimeout: %w", err)
	}
	if n != 0 {
		reg := byte(exp) | (mant << 3)
		if err := r.transport.writeRegisters(ctx, RegSynchTimeout, []byte{reg}); err != nil {
			return fmt.Errorf("sx126x: SetLoRaSymbNumTimeout register: %w", err)
		}
	}
	return nil
}

// encodeSymbNumTimeout returns (mantissa, exponent) such that
// mantissa*2^(2*exponent+1) >= n, mantissa <= 31.
func encodeSymbNumTimeout(n uint16) (mantissa uint8, exponent uint8) {
	if n == 0 {
		return 0, 0
	}
	for exponent = 0; exponent < 8; exponent++ {
		divisor := uint32(1) << uint(2*exponent+1)
		m := (uint32(n) + divisor - 1) / divisor
		if m <= 31 {
			return uint8(m), exponent
		}
	}
	return 31, 7
}

// --- IRQ ---

// SetDIOIrqParams packs the four big-endian u16 IRQ masks (opcode 0x08).
func (r *Radio) SetDIOIrqParams(ctx context.Context, irqMask, dio1Mask, dio2Mask, dio3Mask IRQ) error {
	payload := []byte{
		byte(irqMask >> 8), byte(irqMask),
		byte(dio1Mask >> 8), byte(dio1Mask),
		byte(dio2Mask >> 8), byte(dio2Mask),
		byte(dio3Mask >> 8), byte(dio3Mask),
	}
	if err := r.transport.writeCommand(ctx, OpCfgDIOIrq, payload); err != nil {
		return fmt.Errorf("sx126x: SetDIOIrqParams: %w", err)
	}
	return nil
}

// GetIrqStatus reads the current IRQ status bitfield (opcode 0x12).
func (r *Radio) GetIrqStatus(ctx context.Context) (IRQ, error) {
	resp := make([]byte, 2)
	if _, err := r.transport.readCommand(ctx, OpGetIrqStatus, resp); err != nil {
		return 0, fmt.Errorf("sx126x: GetIrqStatus: %w", err)
	}
	return IRQ(uint16(resp[0])<<8 | uint16(resp[1])), nil
}

// ClearIrqStatus clears the given IRQ bits (opcode 0x02).
func (r *Radio) ClearIrqStatus(ctx context.Context, irq IRQ) error {
	payload := []byte{byte(irq >> 8), byte(irq)}
	if err := r.transport.writeCommand(ctx, OpClrIrqStatus, payload); err != nil {
		return fmt.Errorf("sx126x: ClearIrqStatus: %w", err)
	}
	return nil
}

// --- Regulator / TCXO / RF switch / fallback ---

// SetRegulatorMode selects LDO or DC-DC regulation (opcode 0x96).
func (r *Radio) SetRegulatorMode(ctx context.Context, mode RegulatorMode) error {
	if err := r.transport.writeCommand(ctx, OpSetRegulatorMode, []byte{byte(mode)}); err != nil {
		return fmt.Errorf("sx126x: SetRegulatorMode: %w", err)
	}
	return nil
}

// SetTCXOMode programs DIO3 as TCXO supply control at the given voltage for
// timeout*15.625us (opcode 0x97).
func (r *Radio) SetTCXOMode(ctx context.Context, voltage TcxoCtrlVoltage, timeout uint32) error {
	log := r.log.With("func", "SetTCXOMode", "voltage", voltage, "timeout", timeout)
	log.Debug("set tcxo mode")
	payload := append([]byte{byte(voltage)}, packTimeout24(timeout)...)
	if err := r.transport.writeCommand(ctx, OpSetTCXOMode, payload); err != nil {
		return fmt.Errorf("sx126x: SetTCXOMode: %w", err)
	}
	log.Info("tcxo mode set")
	return nil
}

// SetRFSwitchMode configures whether DIO2 drives the antenna RF switch
// (opcode 0x9D).
func (r *Radio) SetRFSwitchMode(ctx context.Context, dio2AsRfSwitch bool) error {
	v := byte(0x00)
	if dio2AsRfSwitch {
		v = 0x01
	}
	if err := r.transport.writeCommand(ctx, OpSetRFSwitchMode, []byte{v}); err != nil {
		return fmt.Errorf("sx126x: SetRFSwitchMode: %w", err)
	}
	return nil
}

// SetTxFallbackMode selects what mode the chip falls back to after a Tx/Rx
// completes (opcode 0x93).
func (r *Radio) SetTxFallbackMode(ctx context.Context, mode StandbyMode) error {
	if err := r.transport.writeCommand(ctx, OpSetTxFallbackMode, []byte{byte(mode)}); err != nil {
		return fmt.Errorf("sx126x: SetTxFallbackMode: %w", err)
	}
	return nil
}

// SetStopRxTimerOnPreamble selects whether the Rx timeout timer stops on
// preamble detection rather than header/sync detection (opcode 0x9F).
func (r *Radio) SetStopRxTimerOnPreamble(ctx context.Context, stopOnPreamble bool) error {
	v := byte(0x00)
	if stopOnPreamble {
		v = 0x01
	}
	if err := r.transport.writeCommand(ctx, OpSetStopRxTimerOnPreamble, []byte{v}); err != nil {
		return fmt.Errorf("sx126x: SetStopRxTimerOnPreamble: %w", err)
	}
	return nil
}

// --- Status / buffer / packet status / errors / stats ---

// GetStatus reads the chip status byte (opcode 0xC0).
func (r *Radio) GetStatus(ctx context.Context) (RadioStatus, error) {
	status, err := r.transport.readCommand(ctx, OpGetStatus, nil)
	if err != nil {
		return RadioStatus{}, fmt.Errorf("sx126x: GetStatus: %w", err)
	}
	return status, nil
}

// GetRxBufferStatus reads the received-payload length and its buffer offset
// (opcode 0x13). For implicit-header LoRa, the status payload length is
// unreliable so the configured PayloadLength register value is used instead.
func (r *Radio) GetRxBufferStatus(ctx context.Context) (length uint8, offset uint8, err error) {
	if r.packetParams == nil {
		return 0, 0, ErrPacketParamsMissing
	}
	resp := make([]byte, 2)
	if _, err := r.transport.readCommand(ctx, OpGetRxBufferStatus, resp); err != nil {
		return 0, 0, fmt.Errorf("sx126x: GetRxBufferStatus: %w", err)
	}
	length, offset = resp[0], resp[1]
	if r.packetParams.ImplicitHeader {
		regVal := make([]byte, 1)
		if err := r.transport.readRegisters(ctx, RegPayloadLength, regVal); err != nil {
			return 0, 0, fmt.Errorf("sx126x: GetRxBufferStatus payload length register: %w", err)
		}
		length = regVal[0]
	}
	return length, offset, nil
}

// GetPacketStatus reads RSSI/SNR/signal-RSSI for the last received packet
// (opcode 0x14). Decoding follows datasheet §13.5.3 literally:
// rssi/signal_rssi = -(raw>>1) dBm, snr = (int8(raw)+2)>>2 dB — the scaling
// the original driver's authors flagged "check this" and left unresolved;
// this driver documents rather than second-guesses it (spec §9).
func (r *Radio) GetPacketStatus(ctx context.Context) (PacketStatus, error) {
	resp := make([]byte, 3)
	if _, err := r.transport.readCommand(ctx, OpGetPacketStatus, resp); err != nil {
		return PacketStatus{}, fmt.Errorf("sx126x: GetPacketStatus: %w", err)
	}
	rssiPkt := -int8(resp[0] >> 1)
	snr := int8((int8(resp[1]) + 2) >> 2)
	signalRssi := -int8(resp[2] >> 1)
	return PacketStatus{
		RSSI:       rssiPkt,
		SNR:        snr,
		SignalRSSI: signalRssi,
		FreqError:  r.frequencyError,
	}, nil
}

// GetRSSIInst reads the instantaneous RSSI (opcode 0x15), same -(raw>>1)
// decoding as GetPacketStatus.
func (r *Radio) GetRSSIInst(ctx context.Context) (int8, error) {
	resp := make([]byte, 1)
	if _, err := r.transport.readCommand(ctx, OpGetRSSIInst, resp); err != nil {
		return 0, fmt.Errorf("sx126x: GetRSSIInst: %w", err)
	}
	return -int8(resp[0] >> 1), nil
}

// GetDeviceErrors reads the sticky device-error bitfield (opcode 0x17).
func (r *Radio) GetDeviceErrors(ctx context.Context) (DeviceErrors, error) {
	resp := make([]byte, 2)
	if _, err := r.transport.readCommand(ctx, OpGetErrors, resp); err != nil {
		return DeviceErrors{}, fmt.Errorf("sx126x: GetDeviceErrors: %w", err)
	}
	return decodeDeviceErrors(uint16(resp[0])<<8 | uint16(resp[1])), nil
}

// ClearDeviceErrors clears the device-error bitfield (opcode 0x07).
func (r *Radio) ClearDeviceErrors(ctx context.Context) error {
	if err := r.transport.writeCommand(ctx, OpClrErrors, []byte{0x00, 0x00}); err != nil {
		return fmt.Errorf("sx126x: ClearDeviceErrors: %w", err)
	}
	return nil
}

// GetStats reads the packet statistics counters (opcode 0x10). Not named by
// the distilled LoRa façade but a real chip command naturally completing the
// subroutine layer's opcode table.
func (r *Radio) GetStats(ctx context.Context) (PacketStats, error) {
	resp := make([]byte, 6)
	if _, err := r.transport.readCommand(ctx, OpGetStats, resp); err != nil {
		return PacketStats{}, fmt.Errorf("sx126x: GetStats: %w", err)
	}
	return PacketStats{
		PacketsReceived: uint16(resp[0])<<8 | uint16(resp[1]),
		CRCErrors:       uint16(resp[2])<<8 | uint16(resp[3]),
		HeaderErrors:    uint16(resp[4])<<8 | uint16(resp[5]),
	}, nil
}

// ResetStats clears the packet statistics counters (opcode 0x00 with a
// 6-byte zero payload, per datasheet §13.5.6).
func (r *Radio) ResetStats(ctx context.Context) error {
	if err := r.transport.writeCommand(ctx, OpResetStats, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}); err != nil {
		return fmt.Errorf("sx126x: ResetStats: %w", err)
	}
	return nil
}

// --- Random number ---

// GetRandomValue runs the documented register-manipulation sequence to read
// a hardware random number while temporarily masking two analog bits
// (spec §4.D get_random).
func (r *Radio) GetRandomValue(ctx context.Context) (uint32, error) {
	log := r.log.With("func", "GetRandomValue")
	log.Debug("get random value")

	anaLNA := make([]byte, 1)
	if err := r.transport.readRegisters(ctx, RegAnaLNA, anaLNA); err != nil {
		return 0, fmt.Errorf("sx126x: GetRandomValue read AnaLNA: %w", err)
	}
	anaMixer := make([]byte, 1)
	if err := r.transport.readRegisters(ctx, RegAnaMixer, anaMixer); err != nil {
		return 0, fmt.Errorf("sx126x: GetRandomValue read AnaMixer: %w", err)
	}

	if err := r.transport.writeRegisters(ctx, RegAnaLNA, []byte{anaLNA[0] &^ 0x01}); err != nil {
		return 0, fmt.Errorf("sx126x: GetRandomValue clear AnaLNA: %w", err)
	}
	if err := r.transport.writeRegisters(ctx, RegAnaMixer, []byte{anaMixer[0] &^ 0x80}); err != nil {
		return 0, fmt.Errorf("sx126x: GetRandomValue clear AnaMixer: %w", err)
	}

	if err := r.SetRx(ctx, 0xFFFFFF); err != nil {
		return 0, err
	}

	raw := make([]byte, 4)
	if err := r.transport.readRegisters(ctx, RegRandomNumberGen0, raw); err != nil {
		return 0, fmt.Errorf("sx126x: GetRandomValue read generator: %w", err)
	}

	if err := r.SetStandby(ctx, StandbyRC); err != nil {
		return 0, err
	}

	if err := r.transport.writeRegisters(ctx, RegAnaLNA, anaLNA); err != nil {
		return 0, fmt.Errorf("sx126x: GetRandomValue restore AnaLNA: %w", err)
	}
	if err := r.transport.writeRegisters(ctx, RegAnaMixer, anaMixer); err != nil {
		return 0, fmt.Errorf("sx126x: GetRandomValue restore AnaMixer: %w", err)
	}

	value := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	log.Info("random value generated")
	return value, nil
}

// --- Datasheet §15 errata workarounds ---

// ErrataModulationQuality implements §15.1: toggles bit 2 of RegTxModulation
// based on whether the bandwidth is 500kHz.
func (r *Radio) ErrataModulationQuality(ctx context.Context, bw Bandwidth) error {
	reg := make([]byte, 1)
	if err := r.transport.readRegisters(ctx, RegTxModulation, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataModulationQuality read: %w", err)
	}
	if bw == Bandwidth500000 {
		reg[0] &^= 1 << 2
	} else {
		reg[0] |= 1 << 2
	}
	if err := r.transport.writeRegisters(ctx, RegTxModulation, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataModulationQuality write: %w", err)
	}
	return nil
}

// ErrataTxClamp implements §15.2: sets (or clears) bits 1..4 of
// RegTxClampConfig (mask 0x1E, the 4-bit field set to 0x0F), improving
// antenna-mismatch resistance on SX1262.
func (r *Radio) ErrataTxClamp(ctx context.Context, enable bool) error {
	reg := make([]byte, 1)
	if err := r.transport.readRegisters(ctx, RegTxClampConfig, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataTxClamp read: %w", err)
	}
	if enable {
		reg[0] |= 0x1E
	} else {
		reg[0] &^= 0x1E
	}
	if err := r.transport.writeRegisters(ctx, RegTxClampConfig, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataTxClamp write: %w", err)
	}
	return nil
}

// ErrataImplicitTimeout implements §15.3: disables the RTC and sets bit 1 of
// RegEventMask so implicit-header Rx timeouts are reported correctly.
func (r *Radio) ErrataImplicitTimeout(ctx context.Context) error {
	if err := r.transport.writeRegisters(ctx, RegRtcControl, []byte{0x00}); err != nil {
		return fmt.Errorf("sx126x: ErrataImplicitTimeout rtc: %w", err)
	}
	reg := make([]byte, 1)
	if err := r.transport.readRegisters(ctx, RegEventMask, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataImplicitTimeout read: %w", err)
	}
	reg[0] |= 1 << 1
	if err := r.transport.writeRegisters(ctx, RegEventMask, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataImplicitTimeout write: %w", err)
	}
	return nil
}

// ErrataInvertedIQ implements §15.4: toggles bit 2 of RegIqPolaritySetup
// depending on whether inverted IQ is configured.
func (r *Radio) ErrataInvertedIQ(ctx context.Context, inverted bool) error {
	reg := make([]byte, 1)
	if err := r.transport.readRegisters(ctx, RegIqPolaritySetup, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataInvertedIQ read: %w", err)
	}
	if inverted {
		reg[0] &^= 1 << 2
	} else {
		reg[0] |= 1 << 2
	}
	if err := r.transport.writeRegisters(ctx, RegIqPolaritySetup, reg); err != nil {
		return fmt.Errorf("sx126x: ErrataInvertedIQ write: %w", err)
	}
	return nil
}

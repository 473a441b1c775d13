package sx126x

// Opcode is an SX126x SPI command opcode (datasheet §13).
type Opcode uint8

//go:generate stringer -type=Opcode
const (
	OpGetStatus                Opcode = 0xC0
	OpWriteRegister            Opcode = 0x0D
	OpReadRegister             Opcode = 0x1D
	OpWriteBuffer              Opcode = 0x0E
	OpReadBuffer               Opcode = 0x1E
	OpSetSleep                 Opcode = 0x84
	OpSetStandby               Opcode = 0x80
	OpSetFS                    Opcode = 0xC1
	OpSetTx                    Opcode = 0x83
	OpSetRx                    Opcode = 0x82
	OpSetRxDutyCycle           Opcode = 0x94
	OpSetCAD                   Opcode = 0xC5
	OpSetTxContinuousWave      Opcode = 0xD1
	OpSetTxContinuousPreamble  Opcode = 0xD2
	OpSetPacketType            Opcode = 0x8A
	OpGetPacketType            Opcode = 0x11
	OpSetRFFrequency           Opcode = 0x86
	OpSetPAConfig              Opcode = 0x95
	OpSetTxParams              Opcode = 0x8E
	OpSetBufferBaseAddress     Opcode = 0x8F
	OpSetModulationParams      Opcode = 0x8B
	OpSetPacketParams          Opcode = 0x8C
	OpSetCADParams             Opcode = 0x88
	OpCfgDIOIrq                Opcode = 0x08
	OpGetIrqStatus             Opcode = 0x12
	OpClrIrqStatus             Opcode = 0x02
	OpCalibrate                Opcode = 0x89
	OpCalibrateImage           Opcode = 0x98
	OpSetRegulatorMode         Opcode = 0x96
	OpSetStopRxTimerOnPreamble Opcode = 0x9F
	OpSetLoRaSymbTimeout       Opcode = 0xA0
	OpSetTxFallbackMode        Opcode = 0x93
	OpSetRFSwitchMode          Opcode = 0x9D
	OpSetTCXOMode              Opcode = 0x97
	OpGetRxBufferStatus        Opcode = 0x13
	OpGetPacketStatus          Opcode = 0x14
	OpGetRSSIInst              Opcode = 0x15
	OpGetErrors                Opcode = 0x17
	OpClrErrors                Opcode = 0x07
	OpGetStats                 Opcode = 0x10
	OpResetStats               Opcode = 0x00
	OpNOP                      Opcode = 0x00
)

// Register is a radio-memory address accessed via OpWriteRegister/OpReadRegister.
type Register uint16

const (
	RegLoRaSyncWordMsb      Register = 0x0740
	RegLoRaSyncWordLsb      Register = 0x0741
	RegRandomNumberGen0     Register = 0x0819
	RegAnaLNA               Register = 0x08E2
	RegAnaMixer             Register = 0x08E5
	RegTxClampConfig        Register = 0x08D8
	RegTxModulation         Register = 0x0889
	RegRtcControl           Register = 0x0902
	RegEventMask            Register = 0x0944
	RegIqPolaritySetup      Register = 0x0736
	RegRxGain               Register = 0x08AC
	RegPayloadLength        Register = 0x0704
	RegSynchTimeout         Register = 0x0920
)

// RadioMode mirrors the chip's operating mode entered by the last successfully
// issued command (invariant 4).
type RadioMode uint8

//go:generate stringer -type=RadioMode
const (
	ModeSleep RadioMode = iota
	ModeStandbyRC
	ModeStandbyXOSC
	ModeFrequencySynthesis
	ModeTransmit
	ModeReceive
	ModeReceiveDutyCycle
	ModeChannelActivityDetection
)

// PacketType selects the modem. GFSK is modeled because the chip supports it,
// but no façade operation in this driver drives a GFSK transmit/receive path.
type PacketType uint8

const (
	PacketTypeGFSK PacketType = 0x00
	PacketTypeLoRa PacketType = 0x01
)

// RadioType distinguishes the two PA variants; SetTxParams branches on it.
type RadioType uint8

const (
	RadioTypeSX1261 RadioType = iota
	RadioTypeSX1262
)

// Bandwidth is a LoRa channel bandwidth, chip-encoded.
type Bandwidth uint8

const (
	Bandwidth7810   Bandwidth = 0x00 // reserved alias, unused by set_modulation_params below 10.4 kHz
	Bandwidth10400  Bandwidth = 0x08
	Bandwidth15600  Bandwidth = 0x01
	Bandwidth20800  Bandwidth = 0x09
	Bandwidth31250  Bandwidth = 0x02
	Bandwidth41700  Bandwidth = 0x0A
	Bandwidth62500  Bandwidth = 0x03
	Bandwidth125000 Bandwidth = 0x04
	Bandwidth250000 Bandwidth = 0x05
	Bandwidth500000 Bandwidth = 0x06
)

// HzOf returns the bandwidth's value in Hz, or 0 for an unrecognized value.
func (b Bandwidth) HzOf() uint32 {
	switch b {
	case Bandwidth10400:
		return 10400
	case Bandwidth15600:
		return 15600
	case Bandwidth20800:
		return 20800
	case Bandwidth31250:
		return 31250
	case Bandwidth41700:
		return 41700
	case Bandwidth62500:
		return 62500
	case Bandwidth125000:
		return 125000
	case Bandwidth250000:
		return 250000
	case Bandwidth500000:
		return 500000
	default:
		return 0
	}
}

// SpreadingFactor is SF5..SF12.
type SpreadingFactor uint8

const (
	SF5  SpreadingFactor = 5
	SF6  SpreadingFactor = 6
	SF7  SpreadingFactor = 7
	SF8  SpreadingFactor = 8
	SF9  SpreadingFactor = 9
	SF10 SpreadingFactor = 10
	SF11 SpreadingFactor = 11
	SF12 SpreadingFactor = 12
)

func (sf SpreadingFactor) valid() bool { return sf >= SF5 && sf <= SF12 }

// CodingRate is the LoRa forward-error-correction rate, chip-encoded 1..4 for 4/5..4/8.
type CodingRate uint8

const (
	CR4_5 CodingRate = 0x01
	CR4_6 CodingRate = 0x02
	CR4_7 CodingRate = 0x03
	CR4_8 CodingRate = 0x04
)

func (cr CodingRate) valid() bool { return cr >= CR4_5 && cr <= CR4_8 }

// ModulationParams is the LoRa modulation configuration pushed via
// SetModulationParams. LowDataRateOptimize is derived, not caller-set: it is
// 1 iff the symbol duration is >= 16ms.
type ModulationParams struct {
	SpreadingFactor     SpreadingFactor
	Bandwidth           Bandwidth
	CodingRate          CodingRate
	LowDataRateOptimize bool
}

// symbolDurationMs returns the LoRa symbol duration in milliseconds:
// Tsym = 2^SF / BW.
func (m ModulationParams) symbolDurationMs() float64 {
	bwHz := m.Bandwidth.HzOf()
	if bwHz == 0 {
		return 0
	}
	return 1000.0 * float64(uint32(1)<<uint(m.SpreadingFactor)) / float64(bwHz)
}

// withDerivedLDRO returns a copy with LowDataRateOptimize set per the symbol-
// duration invariant (spec: low_data_rate_optimize = 1 iff Tsym >= 16ms).
func (m ModulationParams) withDerivedLDRO() ModulationParams {
	m.LowDataRateOptimize = m.symbolDurationMs() >= 16.0
	return m
}

// PacketParams is the LoRa packet configuration pushed via SetPacketParams.
type PacketParams struct {
	PreambleLength uint16
	ImplicitHeader bool
	PayloadLength  uint8
	CRCOn          bool
	IQInverted     bool
}

// PacketStatus is populated after a successful RxDone.
type PacketStatus struct {
	RSSI       int8 // dBm
	SNR        int8 // dB
	SignalRSSI int8
	FreqError  int32
}

// CalibrationParams is a bitfield selecting which oscillators/blocks to
// calibrate via OpCalibrate.
type CalibrationParams uint8

const (
	CalibRC64k        CalibrationParams = 1 << 0
	CalibRC13M        CalibrationParams = 1 << 1
	CalibPLL          CalibrationParams = 1 << 2
	CalibADCPulse     CalibrationParams = 1 << 3
	CalibADCBulkN     CalibrationParams = 1 << 4
	CalibADCBulkP     CalibrationParams = 1 << 5
	CalibImage        CalibrationParams = 1 << 6
	CalibNone         CalibrationParams = 0
	CalibAll          CalibrationParams = CalibRC64k | CalibRC13M | CalibPLL | CalibADCPulse | CalibADCBulkN | CalibADCBulkP
)

// SleepParams configures retention on OpSetSleep.
type SleepParams uint8

const (
	SleepColdStart SleepParams = 0x00
	SleepWarmStart SleepParams = 0x04
)

// CADExitMode selects what the chip does after a CAD completes without detection.
type CADExitMode uint8

const (
	CADExitOnly CADExitMode = 0x00
	CADExitRx   CADExitMode = 0x01
)

// RampTime is the PA ramp time passed to SetTxParams.
type RampTime uint8

const (
	Ramp10u   RampTime = 0x00
	Ramp20u   RampTime = 0x01
	Ramp40u   RampTime = 0x02
	Ramp80u   RampTime = 0x03
	Ramp200u  RampTime = 0x04
	Ramp800u  RampTime = 0x05
	Ramp1700u RampTime = 0x06
	Ramp3400u RampTime = 0x07
)

// TcxoCtrlVoltage is the voltage byte passed to SetTCXOMode.
type TcxoCtrlVoltage uint8

const (
	TcxoCtrl1V6 TcxoCtrlVoltage = 0x00
	TcxoCtrl1V7 TcxoCtrlVoltage = 0x01
	TcxoCtrl1V8 TcxoCtrlVoltage = 0x02
	TcxoCtrl2V2 TcxoCtrlVoltage = 0x03
	TcxoCtrl2V4 TcxoCtrlVoltage = 0x04
	TcxoCtrl2V7 TcxoCtrlVoltage = 0x05
	TcxoCtrl3V0 TcxoCtrlVoltage = 0x06
	TcxoCtrl3V3 TcxoCtrlVoltage = 0x07
)

// StandbyMode selects RC or XOSC standby on OpSetStandby.
type StandbyMode uint8

const (
	StandbyRC   StandbyMode = 0x00
	StandbyXOSC StandbyMode = 0x01
)

// RegulatorMode selects LDO or DC-DC regulation on OpSetRegulatorMode.
type RegulatorMode uint8

const (
	RegulatorLDO  RegulatorMode = 0x00
	RegulatorDCDC RegulatorMode = 0x01
)

// OscillatorMode selects whether the board supplies a TCXO or a bare crystal.
type OscillatorMode uint8

const (
	OscillatorXOSC OscillatorMode = iota
	OscillatorTCXO
)

// IRQ is a bitmask of radio interrupt flags used by SetDIOIrqParams,
// GetIrqStatus and ClrIrqStatus.
type IRQ uint16

const (
	IrqTxDone           IRQ = 1 << 0
	IrqRxDone           IRQ = 1 << 1
	IrqPreambleDetected IRQ = 1 << 2
	IrqSyncWordValid    IRQ = 1 << 3
	IrqHeaderValid      IRQ = 1 << 4
	IrqHeaderErr        IRQ = 1 << 5
	IrqCrcErr           IRQ = 1 << 6
	IrqCadDone          IRQ = 1 << 7
	IrqCadDetected      IRQ = 1 << 8
	IrqTimeout          IRQ = 1 << 9
	IrqNone             IRQ = 0x0000
	IrqAll              IRQ = 0x03FF
)

// Has reports whether all bits of flag are set in irq.
func (irq IRQ) Has(flag IRQ) bool { return irq&flag == flag }

// RadioStatus decodes the single status byte every command response carries
// (datasheet Table 13-76).
type RadioStatus struct {
	ChipMode  uint8
	CmdStatus uint8
}

func decodeStatus(b uint8) RadioStatus {
	return RadioStatus{
		ChipMode:  (b >> 4) & 0x07,
		CmdStatus: (b >> 1) & 0x07,
	}
}

// DeviceErrors decodes the bitfield returned by GetErrors (datasheet §13.3.5).
type DeviceErrors struct {
	RC64kCalib bool
	RC13MCalib bool
	PLLCalib   bool
	ADCCalib   bool
	ImageCalib bool
	XOSCStart  bool
	PLLLock    bool
	PAramp     bool
}

func decodeDeviceErrors(raw uint16) DeviceErrors {
	return DeviceErrors{
		RC64kCalib: raw&(1<<0) != 0,
		RC13MCalib: raw&(1<<1) != 0,
		PLLCalib:   raw&(1<<2) != 0,
		ADCCalib:   raw&(1<<3) != 0,
		ImageCalib: raw&(1<<4) != 0,
		XOSCStart:  raw&(1<<5) != 0,
		PLLLock:    raw&(1<<6) != 0,
		PAramp:     raw&(1<<8) != 0,
	}
}

// PacketStats are the receive counters returned by GetStats / cleared by ResetStats.
type PacketStats struct {
	PacketsReceived uint16
	CRCErrors       uint16
	HeaderErrors    uint16
}

// RxQuality is the decoded signal quality of a received packet, handed to the
// MAC by PhyRxTx.Rx.
type RxQuality struct {
	RSSI int8
	SNR  int8
}

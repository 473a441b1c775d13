package sx126x

import (
	"context"
	"testing"
)

func TestSetStandby_SetsAntennaSleep(t *testing.T) {
	spiConn := &MockSPI{}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board)

	if err := r.SetStandby(context.Background(), StandbyRC); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	if len(board.AntennaHistory) == 0 || board.AntennaHistory[len(board.AntennaHistory)-1] != AntennaSleep {
		t.Fatalf("FAIL: AntennaHistory = %v, want last entry AntennaSleep", board.AntennaHistory)
	}
}

func TestSetSleep_SetsAntennaSleepAndTracksImageCalibration(t *testing.T) {
	t.Run("cold start clears imageCalibrated", func(t *testing.T) {
		spiConn := &MockSPI{}
		board := &FakeBoard{}
		r := newTestRadio(spiConn, board)
		r.imageCalibrated = true

		if err := r.SetSleep(context.Background(), SleepColdStart); err != nil {
			t.Fatalf("FAIL: %v", err)
		}
		if r.imageCalibrated {
			t.Error("FAIL: imageCalibrated should be false after a cold-start SetSleep")
		}
		if r.operatingMode != ModeSleep {
			t.Errorf("FAIL: operatingMode = %v, want ModeSleep", r.operatingMode)
		}
		if len(board.AntennaHistory) == 0 || board.AntennaHistory[len(board.AntennaHistory)-1] != AntennaSleep {
			t.Fatalf("FAIL: AntennaHistory = %v, want last entry AntennaSleep", board.AntennaHistory)
		}
		want := []byte{byte(OpSetSleep), byte(SleepColdStart)}
		if string(spiConn.TxData) != string(want) {
			t.Errorf("FAIL: TxData = % X, want % X", spiConn.TxData, want)
		}
	})

	t.Run("warm start preserves imageCalibrated", func(t *testing.T) {
		spiConn := &MockSPI{}
		board := &FakeBoard{}
		r := newTestRadio(spiConn, board)
		r.imageCalibrated = true

		if err := r.SetSleep(context.Background(), SleepWarmStart); err != nil {
			t.Fatalf("FAIL: %v", err)
		}
		if !r.imageCalibrated {
			t.Error("FAIL: imageCalibrated should remain true after a warm-start SetSleep")
		}
	})
}

func TestSetTx_PacksTimeoutBigEndianAndSetsMode(t *testing.T) {
	tests := []struct {
		name    string
		timeout uint32
		want    []byte
	}{
		{"zero means continuous", 0x000000, []byte{0x00, 0x00, 0x00}},
		{"max 24-bit", 0xFFFFFF, []byte{0xFF, 0xFF, 0xFF}},
		{"truncates above 24 bits", 0xFF123456, []byte{0x12, 0x34, 0x56}},
	}
	for _, tt := range tests {
		spiConn := &MockSPI{}
		board := &FakeBoard{}
		r := newTestRadio(spiConn, board)
		r.operatingMode = ModeStandbyRC // already awake; isolate the SetTx byte sequence

		if err := r.SetTx(context.Background(), tt.timeout); err != nil {
			t.Fatalf("FAIL: %s: SetTx returned error: %v", tt.name, err)
		}
		want := append([]byte{byte(OpSetTx)}, tt.want...)
		if string(spiConn.TxData) != string(want) {
			t.Errorf("FAIL: %s: TxData = % X, want % X", tt.name, spiConn.TxData, want)
		}
		if r.operatingMode != ModeTransmit {
			t.Errorf("FAIL: %s: operatingMode = %v, want ModeTransmit", tt.name, r.operatingMode)
		}
		if len(board.AntennaHistory) == 0 || board.AntennaHistory[len(board.AntennaHistory)-1] != AntennaTx {
			t.Errorf("FAIL: %s: antenna not switched to Tx", tt.name)
		}
	}
}

func TestSetRx_WritesRxGainBeforeSetRx(t *testing.T) {
	spiConn := &MockSPI{}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board)
	r.operatingMode = ModeStandbyRC // already awake; isolate the SetRx byte sequence

	if err := r.SetRx(context.Background(), 1000); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	wantGain := []byte{byte(OpWriteRegister), 0x08, 0xAC, 0x94}
	wantSetRx := []byte{byte(OpSetRx), 0x00, 0x03, 0xE8}
	want := append(append([]byte{}, wantGain...), wantSetRx...)
	if string(spiConn.TxData) != string(want) {
		t.Fatalf("FAIL: TxData = % X, want % X", spiConn.TxData, want)
	}
	if r.operatingMode != ModeReceive {
		t.Fatalf("FAIL: operatingMode = %v, want ModeReceive", r.operatingMode)
	}
}

func TestSetPacketType_PreconditionsSetRFFrequency(t *testing.T) {
	spiConn := &MockSPI{}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board)

	if err := r.SetRFFrequency(context.Background(), 868_100_000); err == nil {
		t.Fatal("FAIL: expected an error calling SetRFFrequency before SetPacketType")
	}
	if err := r.SetPacketType(context.Background(), PacketTypeLoRa); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	if err := r.SetRFFrequency(context.Background(), 868_100_000); err != nil {
		t.Fatalf("FAIL: SetRFFrequency after SetPacketType returned error: %v", err)
	}
}

func TestSetRFFrequency_CalibratesImageOnceThenWritesPLLStep(t *testing.T) {
	spiConn := &MockSPI{}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board)
	if err := r.SetPacketType(context.Background(), PacketTypeLoRa); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	spiConn.TxData = nil

	if err := r.SetRFFrequency(context.Background(), 868_100_000); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	if !r.imageCalibrated {
		t.Fatal("FAIL: expected imageCalibrated true after first SetRFFrequency")
	}
	firstLen := len(spiConn.TxData)
	spiConn.TxData = nil

	if err := r.SetRFFrequency(context.Background(), 915_000_000); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	// Second call must not re-run CalibrateImage (opcode 0x98 absent).
	for _, b := range spiConn.TxData {
		if b == byte(OpCalibrateImage) {
			t.Fatalf("FAIL: unexpected re-calibration on second SetRFFrequency call")
		}
	}
	_ = firstLen
}

func TestSetTxParams_SX1261ClampsAndSelectsPAConfig(t *testing.T) {
	spiConn := &MockSPI{}
	board := &FakeBoard{}
	cfg := DefaultRadioConfig()
	cfg.RadioType = RadioTypeSX1261
	r := New(spiConn, board, cfg)

	if err := r.SetTxParams(context.Background(), 20, Ramp40u); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	wantPA := []byte{byte(OpSetPAConfig), 0x04, 0x00, 0x01, 0x01}
	if string(spiConn.TxData[:len(wantPA)]) != string(wantPA) {
		t.Fatalf("FAIL: PA config = % X, want % X", spiConn.TxData[:len(wantPA)], wantPA)
	}
	wantTxParams := []byte{byte(OpSetTxParams), uint8(int8(14)), byte(Ramp40u)}
	if string(spiConn.TxData[len(wantPA):]) != string(wantTxParams) {
		t.Fatalf("FAIL: tx params = % X, want % X (power clamped to 14)", spiConn.TxData[len(wantPA):], wantTxParams)
	}
}

func TestSetTxParams_SX1262NegativePowerWrapsToU8(t *testing.T) {
	spiConn := &MockSPI{}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board) // default config is SX1262

	if err := r.SetTxParams(context.Background(), -9, Ramp200u); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	// -9 as two's-complement uint8 is 0xF7.
	found := false
	for i := 0; i+2 < len(spiConn.TxData); i++ {
		if spiConn.TxData[i] == byte(OpSetTxParams) {
			if spiConn.TxData[i+1] != 0xF7 {
				t.Fatalf("FAIL: power byte = %#x, want 0xF7", spiConn.TxData[i+1])
			}
			found = true
		}
	}
	if !found {
		t.Fatal("FAIL: SetTxParams opcode not found in TxData")
	}
}

func TestCalibrationBandFor_NoDuplicateBandBelowLowestThreshold(t *testing.T) {
	tests := []struct {
		name   string
		freqHz uint32
		want   [2]byte
	}{
		{"above 900MHz", 915_000_000, [2]byte{0xE1, 0xE9}},
		{"above 850MHz", 868_100_000, [2]byte{0xD7, 0xDB}},
		{"above 770MHz", 779_000_000, [2]byte{0xC1, 0xC5}},
		{"above 460MHz", 470_000_000, [2]byte{0x75, 0x81}},
		{"above 425MHz", 430_000_000, [2]byte{0x6B, 0x6F}},
		{"at or below 425MHz has no defined band", 425_000_000, [2]byte{0x00, 0x00}},
		{"well below 425MHz has no defined band", 150_000_000, [2]byte{0x00, 0x00}},
	}
	for _, tt := range tests {
		if got := calibrationBandFor(tt.freqHz); got != tt.want {
			t.Errorf("FAIL: %s: calibrationBandFor(%d) = % X, want % X", tt.name, tt.freqHz, got, tt.want)
		}
	}
}

func TestCalibrate_BitCombinationsEncodeCorrectly(t *testing.T) {
	tests := []struct {
		name   string
		params CalibrationParams
		want   byte
	}{
		{"none", CalibNone, 0x00},
		{"all", CalibAll, 0x3F},
		{"rc64k or rc13m", CalibRC64k | CalibRC13M, 0x03},
		{"image only", CalibImage, 0x40},
	}
	for _, tt := range tests {
		spiConn := &MockSPI{}
		board := &FakeBoard{}
		r := newTestRadio(spiConn, board)
		if err := r.Calibrate(context.Background(), tt.params); err != nil {
			t.Fatalf("FAIL: %s: %v", tt.name, err)
		}
		want := []byte{byte(OpCalibrate), tt.want}
		if string(spiConn.TxData) != string(want) {
			t.Errorf("FAIL: %s: TxData = % X, want % X", tt.name, spiConn.TxData, want)
		}
	}
}

func TestGetPacketStatus_DecodesRSSIAndSNR(t *testing.T) {
	// raw rssi byte 220 -> -(220>>1) = -110; raw snr byte 36 -> (36+2)>>2 = 9 (approx S4 scenario values)
	spiConn := &MockSPI{Responses: [][]byte{{0x00, 0x00, 220, 36, 220}}}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board)

	status, err := r.GetPacketStatus(context.Background())
	if err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	if status.RSSI != -110 {
		t.Errorf("FAIL: RSSI = %d, want -110", status.RSSI)
	}
	if status.SNR != 9 {
		t.Errorf("FAIL: SNR = %d, want 9", status.SNR)
	}
}

func TestErrataTxClamp_SetsBits1Through4(t *testing.T) {
	spiConn := &MockSPI{Responses: [][]byte{{0x00, 0x00}}}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board)

	if err := r.ErrataTxClamp(context.Background(), true); err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	wantWrite := []byte{byte(OpWriteRegister), 0x08, 0xD8, 0x1E}
	tail := spiConn.TxData[len(spiConn.TxData)-len(wantWrite):]
	if string(tail) != string(wantWrite) {
		t.Fatalf("FAIL: write = % X, want % X", tail, wantWrite)
	}
}

func TestGetRandomValue_RestoresMaskedRegisters(t *testing.T) {
	spiConn := &MockSPI{Responses: [][]byte{
		{0x00, 0x00, 0x00, 0x00, 0b1010_1011},             // AnaLNA read
		{0x00, 0x00, 0x00, 0x00, 0b1111_1111},             // AnaMixer read
		{0x00, 0x00, 0x00, 0x00, 0x11, 0x22, 0x33, 0x44}, // random number register read
	}}
	board := &FakeBoard{}
	r := newTestRadio(spiConn, board)
	if err := r.SetPacketType(context.Background(), PacketTypeLoRa); err != nil {
		t.Fatalf("FAIL: %v", err)
	}

	val, err := r.GetRandomValue(context.Background())
	if err != nil {
		t.Fatalf("FAIL: %v", err)
	}
	want := uint32(0x11223344)
	if val != want {
		t.Fatalf("FAIL: GetRandomValue() = %#x, want %#x", val, want)
	}
	if r.operatingMode != ModeStandbyRC {
		t.Fatalf("FAIL: operatingMode = %v, want ModeStandbyRC after GetRandomValue", r.operatingMode)
	}
}

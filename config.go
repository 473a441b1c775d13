package sx126x

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// WorkaroundConfig gates the datasheet §15 errata workarounds. Each defaults
// to on, matching the reference board this driver was grounded on; a board
// that cannot apply a given workaround (e.g. SX1261 has no TX clamp) should
// leave the corresponding command a no-op rather than flip the flag off.
type WorkaroundConfig struct {
	ModulationQuality bool `yaml:"modulation_quality" env:"SX126X_ERRATA_MOD_QUALITY" env-default:"true"`
	TxClamp           bool `yaml:"tx_clamp" env:"SX126X_ERRATA_TX_CLAMP" env-default:"true"`
	ImplicitTimeout   bool `yaml:"implicit_timeout" env:"SX126X_ERRATA_IMPLICIT_TIMEOUT" env-default:"true"`
	InvertedIQ        bool `yaml:"inverted_iq" env:"SX126X_ERRATA_INVERTED_IQ" env-default:"true"`
}

// RadioConfig is the recognized configuration surface (spec §6): the options
// a board integrator sets once at construction time, loadable via cleanenv
// from a YAML file or from the environment the way the rest of this driver's
// lineage loads its device configuration.
type RadioConfig struct {
	RadioType           RadioType        `yaml:"radio_type" env:"SX126X_RADIO_TYPE" env-default:"1"`
	OscillatorMode      OscillatorMode   `yaml:"oscillator_mode" env:"SX126X_OSCILLATOR_MODE" env-default:"1"`
	DIO2AntennaControl  bool             `yaml:"dio2_antenna_control" env:"SX126X_DIO2_ANTENNA_CONTROL" env-default:"false"`
	EnablePublicNetwork bool             `yaml:"enable_public_network" env:"SX126X_PUBLIC_NETWORK" env-default:"true"`
	TcxoVoltage         TcxoCtrlVoltage  `yaml:"tcxo_voltage" env:"SX126X_TCXO_VOLTAGE" env-default:"2"`
	RegulatorMode       RegulatorMode    `yaml:"regulator_mode" env:"SX126X_REGULATOR_MODE" env-default:"1"`
	Workarounds         WorkaroundConfig `yaml:"workarounds"`
}

// DefaultRadioConfig mirrors the env-default values above, for callers
// constructing a Radio without going through cleanenv.
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		RadioType:           RadioTypeSX1262,
		OscillatorMode:      OscillatorTCXO,
		DIO2AntennaControl:  false,
		EnablePublicNetwork: true,
		TcxoVoltage:         TcxoCtrl1V8,
		RegulatorMode:       RegulatorDCDC,
		Workarounds: WorkaroundConfig{
			ModulationQuality: true,
			TxClamp:           true,
			ImplicitTimeout:   true,
			InvertedIQ:        true,
		},
	}
}

// LoadRadioConfig loads a RadioConfig from a YAML file at path, falling back
// to environment variables if path does not exist, following the same
// fallback pattern this driver's board-integration layer uses for every
// other peripheral's configuration.
func LoadRadioConfig(path string) (*RadioConfig, error) {
	cfg := DefaultRadioConfig()
	if _, err := os.Stat(path); path == "" || err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package avr

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadBoard reads board configuration (today just the supply voltage) from
// an optional YAML file plus AVRVM_*-prefixed environment variables,
// falling back to DefaultBoard when neither is set. CLI flags, handled by
// the caller, take precedence over both.
func LoadBoard(configPath string) (Board, error) {
	v := viper.New()
	v.SetDefault("vcc_millivolts", DefaultBoard.VCCMillivolts)
	v.SetEnvPrefix("AVRVM")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Board{}, fmt.Errorf("reading board config: %w", err)
		}
	}

	return Board{VCCMillivolts: uint16(v.GetUint("vcc_millivolts"))}, nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/cryptoants/internal/currency"
)

// economyFile mirrors EconomyConfig with wei amounts kept as decimal text, so
// prices above the uint64 range survive the YAML decoder.
type economyFile struct {
	EconomyConfig `yaml:",inline"`
	EggPrice      string `yaml:"egg_price"`
	AntSalePrice  string `yaml:"ant_sale_price"`
}

// LoadEconomyFile overlays the YAML tuning file at path onto dst. Keys missing
// from the file keep their current value.
func LoadEconomyFile(path string, dst *EconomyConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read economy file %s: %w", path, err)
	}

	file := economyFile{EconomyConfig: *dst}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("economy file %s: %w", path, err)
	}

	out := file.EconomyConfig
	if file.EggPrice != "" {
		if out.EggPrice, err = currency.ParseWei(file.EggPrice); err != nil {
			return fmt.Errorf("economy file %s: egg_price: %w", path, err)
		}
	}
	if file.AntSalePrice != "" {
		if out.AntSalePrice, err = currency.ParseWei(file.AntSalePrice); err != nil {
			return fmt.Errorf("economy file %s: ant_sale_price: %w", path, err)
		}
	}

	*dst = out
	return nil
}

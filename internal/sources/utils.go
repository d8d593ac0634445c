package sources

import (
	"fmt"

	"github.com/arrayops/remotearray/pkg/config"
)

// LoadArrayConfig finds the configuration for a named array. Every source
// backend resolves its own config this way at construction.
func LoadArrayConfig(provider config.ConfigProvider, arrayName string) (*config.ArrayData, error) {
	arrays, err := provider.GetArrays()
	if err != nil {
		return nil, fmt.Errorf("error loading array configuration: %v", err)
	}

	for i := range arrays {
		if arrays[i].Name == arrayName {
			return &arrays[i], nil
		}
	}

	return nil, fmt.Errorf("array [%s] not found in configuration", arrayName)
}

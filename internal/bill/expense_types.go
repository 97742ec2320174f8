package bill

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultExpenseTypes is the category list offered by the new bill form
var DefaultExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

type expenseTypesFile struct {
	Types []string `yaml:"types"`
}

// LoadExpenseTypes reads a YAML file of the form
//
//	types:
//	  - Transports
//	  - Hôtel et logement
//
// An empty path returns DefaultExpenseTypes.
func LoadExpenseTypes(path string) ([]string, error) {
	if path == "" {
		return DefaultExpenseTypes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading expense types: %w", err)
	}

	var f expenseTypesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing expense types: %w", err)
	}

	types := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("expense types file %s lists no types", path)
	}
	return types, nil
}

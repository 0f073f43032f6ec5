package infrastructure

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pharmadash/internal/modules/datamanager/domain"
)

type screenFile struct {
	Screens []domain.ScreenConfig `yaml:"screens"`
}

// LoadScreenCatalog reads the YAML screen definitions from filename. Screens without a
// bulkPolicy get defaultPolicy.
func LoadScreenCatalog(filename, defaultPolicy string) (*domain.ScreenCatalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading screens file: %w", err)
	}
	return DecodeScreenCatalog(bytes.NewReader(data), defaultPolicy)
}

// DecodeScreenCatalog parses a `screens:` document. Unknown keys are rejected so typos in a
// column or lookup name surface at startup.
func DecodeScreenCatalog(r io.Reader, defaultPolicy string) (*domain.ScreenCatalog, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file screenFile
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshalling screens: %w", err)
	}
	for index, screen := range file.Screens {
		if strings.TrimSpace(screen.Endpoint) == "" {
			return nil, fmt.Errorf("screen %d: endpoint is required", index)
		}
		if strings.TrimSpace(string(screen.BulkPolicy)) == "" {
			file.Screens[index].BulkPolicy = domain.BulkPolicy(defaultPolicy)
		}
	}
	return domain.NewScreenCatalog(file.Screens), nil
}

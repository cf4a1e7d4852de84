package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

type routingFile struct {
	Extraction struct {
		ProfileID string `yaml:"profile_id"`
		SchemaID  string `yaml:"schema_id"`
	} `yaml:"extraction"`
}

// LoadRouting reads the extraction routing targets from a YAML file. A
// missing or empty file is not an error here; the submission stage treats
// unconfigured routing as a per-claim configuration failure so that each
// affected claim gets its own audit record.
func LoadRouting(path string) (domain.RoutingTargets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RoutingTargets{}, nil
		}
		return domain.RoutingTargets{}, fmt.Errorf("read routing file: %w", err)
	}

	var file routingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.RoutingTargets{}, fmt.Errorf("parse routing file %s: %w", path, err)
	}
	return domain.RoutingTargets{
		ProfileID: file.Extraction.ProfileID,
		SchemaID:  file.Extraction.SchemaID,
	}, nil
}

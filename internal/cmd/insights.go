package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/actuator/internal/fileutil"
	"github.com/harrison/actuator/internal/models"
)

// LoadInsights reads insights from a YAML or JSON file. The document is
// either a list of insights or a mapping with an "insights" list. Insights
// without an ID get a generated one.
func LoadInsights(path string) ([]models.Insight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read insights file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse insights file %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	var insights []models.Insight
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&insights); err != nil {
			return nil, fmt.Errorf("decode insights in %s: %w", path, err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Insights []models.Insight `yaml:"insights"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode insights in %s: %w", path, err)
		}
		insights = wrapped.Insights
	default:
		return nil, fmt.Errorf("insights file %s: expected a list or an insights mapping", path)
	}

	models.EnsureIDs(insights)
	return insights, nil
}

// loadAll reads every insights file in order. Directory arguments expand to
// the insight files they contain.
func loadAll(paths []string) ([]models.Insight, error) {
	files, err := fileutil.ExpandInsightPaths(paths)
	if err != nil {
		return nil, err
	}

	var all []models.Insight
	for _, p := range files {
		insights, err := LoadInsights(p)
		if err != nil {
			return nil, err
		}
		all = append(all, insights...)
	}
	return all, nil
}

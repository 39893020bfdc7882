// Package application provides plan loading and orchestration for the
// combination engine.
package application

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestPlanConfig_UnmarshalYAML covers decoding only, not validation.
func TestPlanConfig_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		verify  func(t *testing.T, config *PlanConfig)
	}{
		{
			name: "minimal plan",
			yaml: `
version: "1.0.0"
metadata:
  name: minimal
units:
  - id: avg
    type: average
`,
			verify: func(t *testing.T, config *PlanConfig) {
				assert.Equal(t, "1.0.0", config.Version)
				assert.Equal(t, "minimal", config.Metadata.Name)
				require.Len(t, config.Units, 1)
				assert.Equal(t, "avg", config.Units[0].ID)
				assert.Equal(t, "average", config.Units[0].Type)
				assert.Zero(t, config.Units[0].Parameters.Kind, "absent parameters stay an empty node")
				assert.Empty(t, config.Stages)
			},
		},
		{
			name: "stages and parameters",
			yaml: `
version: "1.2.3"
metadata:
  name: consensus
  description: combine detector scores
  tags: [lscp, outliers]
  labels:
    team: detection
units:
  - id: avg
    type: average
    parameters:
      weights: [1, 2, 1, 1]
  - id: aom5
    type: aom
    parameters:
      buckets: 2
      seed: 42
stages:
  - id: combine
    parallel: true
    units: [avg, aom5]
`,
			verify: func(t *testing.T, config *PlanConfig) {
				assert.Equal(t, []string{"lscp", "outliers"}, config.Metadata.Tags)
				assert.Equal(t, "detection", config.Metadata.Labels["team"])

				var params map[string]any
				require.NoError(t, config.Units[1].Parameters.Decode(&params))
				assert.Equal(t, 2, params["buckets"])
				assert.Equal(t, 42, params["seed"])

				require.Len(t, config.Stages, 1)
				assert.True(t, config.Stages[0].Parallel)
				assert.Equal(t, []string{"avg", "aom5"}, config.Stages[0].Units)
			},
		},
		{
			name:    "malformed YAML",
			yaml:    "version: [1.0.0\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var config PlanConfig
			err := yaml.Unmarshal([]byte(tt.yaml), &config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.verify(t, &config)
		})
	}
}

func TestPlanConfig_DefaultStage(t *testing.T) {
	config := PlanConfig{Units: []UnitConfig{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	stages := config.stages()
	require.Len(t, stages, 1)
	assert.Equal(t, "default", stages[0].ID)
	assert.False(t, stages[0].Parallel)
	assert.Equal(t, []string{"a", "b", "c"}, stages[0].Units)

	config.Stages = []StageConfig{{ID: "only", Units: []string{"b"}}}
	assert.Equal(t, config.Stages, config.stages())
}

func TestPlanConfig_StructValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterPlanValidators(v))

	valid := func() PlanConfig {
		return PlanConfig{
			Version:  "1.0.0",
			Metadata: Metadata{Name: "plan"},
			Units:    []UnitConfig{{ID: "avg", Type: "average"}},
			Stages:   []StageConfig{{ID: "s1", Units: []string{"avg"}}},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *PlanConfig)
		field  string
	}{
		{"bad version", func(c *PlanConfig) { c.Version = "v1" }, "Version"},
		{"missing name", func(c *PlanConfig) { c.Metadata.Name = "" }, "Name"},
		{"no units", func(c *PlanConfig) { c.Units = nil }, "Units"},
		{"bad unit ID", func(c *PlanConfig) { c.Units[0].ID = "9lives" }, "ID"},
		{"missing unit type", func(c *PlanConfig) { c.Units[0].Type = "" }, "Type"},
		{"empty stage", func(c *PlanConfig) { c.Stages[0].Units = nil }, "Units"},
		{"blank stage entry", func(c *PlanConfig) { c.Stages[0].Units = []string{""} }, "Units[0]"},
		{"too many tags", func(c *PlanConfig) { c.Metadata.Tags = make([]string, 21) }, "Tags"},
	}

	base := valid()
	require.NoError(t, v.Struct(&base))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)
			err := v.Struct(&config)
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

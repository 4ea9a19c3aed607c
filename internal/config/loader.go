// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config layers the program configuration the way the
// codefang example does: viper defaults, optionally overlaid by a
// config file, overlaid by environment variables, then unmarshaled
// into schema.ProgramConfig, whose JSON encoding is validated against
// an embedded JSON Schema.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"

	"github.com/bmspipeline/core/pkg/schema"
)

//go:embed schemas/config.schema.json
var schemaFS embed.FS

var configSchema = compileConfigSchema()

func compileConfigSchema() *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schemas/config.schema.json")
	if err != nil {
		panic("config: embedded schema missing: " + err.Error())
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", bytes.NewReader(raw)); err != nil {
		panic("config: embedded schema invalid: " + err.Error())
	}
	sch, err := c.Compile("config.schema.json")
	if err != nil {
		panic("config: embedded schema failed to compile: " + err.Error())
	}
	return sch
}

// Load builds a ProgramConfig from defaults, an optional config file
// at path (any viper-supported format: yaml/json/toml), and
// environment variables of the same UPPER_SNAKE_CASE key names — in
// that ascending precedence order. A missing configPath is not an
// error; an invalid one is.
func Load(configPath string) (schema.ProgramConfig, error) {
	v := viper.New()
	applyDefaults(v, schema.Defaults())

	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return schema.ProgramConfig{}, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	var cfg schema.ProgramConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return schema.ProgramConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate the resolved config against the schema using its own
	// JSON encoding (UPPER_SNAKE_CASE keys from the struct's json tags)
	// rather than viper.AllSettings(), which lowercases every key and
	// would silently defeat per-property validation.
	asJSON, err := json.Marshal(cfg)
	if err != nil {
		return schema.ProgramConfig{}, fmt.Errorf("re-encode config for validation: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(asJSON, &decoded); err != nil {
		return schema.ProgramConfig{}, fmt.Errorf("re-decode config for validation: %w", err)
	}
	if err := configSchema.Validate(decoded); err != nil {
		return schema.ProgramConfig{}, fmt.Errorf("config failed schema validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(v *viper.Viper, d schema.ProgramConfig) {
	v.SetDefault("DATA_ROOT", d.DataRoot)
	v.SetDefault("OUTPUT_ROOT", d.OutputRoot)
	v.SetDefault("TIME_STEP_SEC", d.TimeStepSec)
	v.SetDefault("CELLS_PER_MODULE", d.CellsPerModule)
	v.SetDefault("TEMP_PER_MODULE", d.TempPerModule)
	v.SetDefault("MODULE_ROWS", d.ModuleRows)
	v.SetDefault("MODULE_COLS", d.ModuleCols)
	v.SetDefault("MAX_WORKERS", d.MaxWorkers)
	v.SetDefault("WORKER_QUEUE_SIZE", d.WorkerQueueSize)
	v.SetDefault("MEMORY_SOFT_LIMIT_MB", d.MemorySoftLimitMB)
	v.SetDefault("MEMORY_HARD_LIMIT_MB", d.MemoryHardLimitMB)
	v.SetDefault("GUARD_ACTION", d.GuardAction)
	v.SetDefault("GUARD_INTERVAL_SEC", d.GuardIntervalSec)
	v.SetDefault("TEMP_DIFF_THRESHOLD", d.TempDiffThreshold)
	v.SetDefault("VOLT_DISCHARGE_CUTOFF", d.VoltDischargeCutoff)
	v.SetDefault("VOLT_CHARGE_CUTOFF", d.VoltChargeCutoff)
}

// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

// ProgramConfig holds every recognized configuration key from spec
// §6. Field names follow the teacher's convention of one struct with
// json tags for the on-disk form; internal/config additionally binds
// these to environment variables of the same UPPER_SNAKE_CASE name
// via viper.
type ProgramConfig struct {
	DataRoot   string `json:"DATA_ROOT" mapstructure:"DATA_ROOT"`
	OutputRoot string `json:"OUTPUT_ROOT" mapstructure:"OUTPUT_ROOT"`

	TimeStepSec int64 `json:"TIME_STEP_SEC" mapstructure:"TIME_STEP_SEC"`

	CellsPerModule int `json:"CELLS_PER_MODULE" mapstructure:"CELLS_PER_MODULE"`
	TempPerModule  int `json:"TEMP_PER_MODULE" mapstructure:"TEMP_PER_MODULE"`
	ModuleRows     int `json:"MODULE_ROWS" mapstructure:"MODULE_ROWS"`
	ModuleCols     int `json:"MODULE_COLS" mapstructure:"MODULE_COLS"`

	MaxWorkers      int `json:"MAX_WORKERS" mapstructure:"MAX_WORKERS"`
	WorkerQueueSize int `json:"WORKER_QUEUE_SIZE" mapstructure:"WORKER_QUEUE_SIZE"`

	MemorySoftLimitMB int64  `json:"MEMORY_SOFT_LIMIT_MB" mapstructure:"MEMORY_SOFT_LIMIT_MB"`
	MemoryHardLimitMB int64  `json:"MEMORY_HARD_LIMIT_MB" mapstructure:"MEMORY_HARD_LIMIT_MB"`
	GuardAction       string `json:"GUARD_ACTION" mapstructure:"GUARD_ACTION"` // gc | warn | raise
	GuardIntervalSec  int64  `json:"GUARD_INTERVAL_SEC" mapstructure:"GUARD_INTERVAL_SEC"`

	TempDiffThreshold   float64 `json:"TEMP_DIFF_THRESHOLD" mapstructure:"TEMP_DIFF_THRESHOLD"`
	VoltDischargeCutoff float64 `json:"VOLT_DISCHARGE_CUTOFF" mapstructure:"VOLT_DISCHARGE_CUTOFF"`
	VoltChargeCutoff    float64 `json:"VOLT_CHARGE_CUTOFF" mapstructure:"VOLT_CHARGE_CUTOFF"`
}

// Defaults mirrors the literal values spec §4/§6 calls out; the
// config loader starts from these before overlaying a file and then
// the environment.
func Defaults() ProgramConfig {
	return ProgramConfig{
		DataRoot:   "./data",
		OutputRoot: "./var/results",

		TimeStepSec: 5,

		CellsPerModule: 32,
		TempPerModule:  20,
		ModuleRows:     4,
		ModuleCols:     8,

		MaxWorkers:      0, // 0 means max(1, NumCPU-1); resolved at startup
		WorkerQueueSize: 32,

		MemorySoftLimitMB: 1536,
		MemoryHardLimitMB: 1536,
		GuardAction:       "gc",
		GuardIntervalSec:  3,

		TempDiffThreshold:   2.0,
		VoltDischargeCutoff: 2.8,
		VoltChargeCutoff:    3.65,
	}
}

// Topology returns the TopologyConfig slice of keys relevant to
// BuildTopology, given a rack count discovered from the input (the
// config itself does not fix the number of racks).
func (c ProgramConfig) Topology(nRacks, nModulesPerRack int) TopologyConfig {
	return TopologyConfig{
		NRacks:          nRacks,
		NModulesPerRack: nModulesPerRack,
		ModuleRows:      c.ModuleRows,
		ModuleCols:      c.ModuleCols,
		TempPerModule:   c.TempPerModule,
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the streaming engine's process-level configuration
// — ring capacity, core counts, backend selection — from a .env file or
// environment variables, the same fallback idiom used elsewhere in the
// ecosystem this module draws on.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the process-wide tuning surface. Per-stream simulator
// configuration (names, frequency, table sizes, ...) is a separate,
// free-form document consumed by Stream.Bind; it does not belong here.
type Config struct {
	RingCapacity int    `env:"VPMU_RING_CAPACITY" env-default:"4096" validate:"gte=2"`
	NumCores     int    `env:"VPMU_NUM_CORES" env-default:"1" validate:"gte=1,lte=8"`
	Backend      string `env:"VPMU_BACKEND" env-default:"thread" validate:"oneof=inline thread process"`
	SyncPeriod   int    `env:"VPMU_SYNC_PERIOD" env-default:"3" validate:"gte=2,lte=4"`
}

// Load reads Config from a .env file if present, falling back to plain
// environment variables, then validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(".env", &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

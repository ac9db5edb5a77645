package config

import (
	"quizcost/core/estimation"
	"quizcost/internal/calibration"
	"quizcost/internal/errors"
)

// Calibration resolves the estimation config: defaults, then the
// calibration file, then inline overrides.
func (c *Config) Calibration() (estimation.EstimationConfig, error) {
	if err := c.Estimation.Overrides.Validate(); err != nil {
		return estimation.EstimationConfig{}, errors.Config("invalid estimation.overrides", err)
	}

	update := estimation.ConfigUpdate{}
	if c.Estimation.CalibrationFile != "" {
		fromFile, err := calibration.Load(c.Estimation.CalibrationFile)
		if err != nil {
			return estimation.EstimationConfig{}, errors.Config("failed to load estimation.calibration_file", err)
		}
		update = fromFile
	}
	update = update.Merge(c.Estimation.Overrides)
	return update.Apply(estimation.DefaultConfig()), nil
}

// NewService builds the estimation service described by the config
func (c *Config) NewService() (*estimation.Service, error) {
	strategy, err := estimation.StrategyByName(c.Estimation.Strategy)
	if err != nil {
		return nil, errors.Config("invalid estimation.strategy", err)
	}
	cfg, err := c.Calibration()
	if err != nil {
		return nil, err
	}
	return estimation.NewService(strategy, cfg), nil
}

package main

import (
	"github.com/sherifabdlnaby/configuro"
)

// Config values can be set using either environment variables with `CONFIG_`
// prefix or config.yml file placed in working directory.
// See https://github.com/sherifabdlnaby/configuro.
type Config struct {
	Logging   Logging
	Database  Database
	Binance   Binance
	PubSub    PubSub
	Portfolio Portfolio
	Strategy  Strategy
}

type Logging struct {
	Level  string
	Format string
}

type Database struct {
	Address      string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MigrationDir string
}

type Binance struct {
	ApiKey      string
	SecretKey   string
	Instruments []string
}

type PubSub struct {
	ProjectID          string
	NotificationsTopic string
}

type Portfolio struct {
	TargetPeriod        string
	BasePeriod          string
	RiskPolicy          string
	RiskBudget          float64
	DefaultRiskPerTrade float64
	StartingEquity      float64
	Allocations         map[string]float64
}

type Strategy struct {
	FastEMAPeriod int
	SlowEMAPeriod int
	ATRPeriod     int
	ATRRiskMult   float64
	MinSize       float64
	MaxSize       float64
}

func readConfig() (*Config, error) {
	loader, err := configuro.NewConfig()
	if err != nil {
		return nil, err
	}

	// Default config values.
	config := &Config{
		Logging: Logging{
			Level: "info",
		},
		Database: Database{
			Address:  "localhost:5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "postgres",
			SSLMode:  "disable",
		},
		Portfolio: Portfolio{
			TargetPeriod:        "5MINUTE",
			RiskPolicy:          "equal-split",
			RiskBudget:          100,
			DefaultRiskPerTrade: 0,
			StartingEquity:      10000,
		},
		Strategy: Strategy{
			FastEMAPeriod: 12,
			SlowEMAPeriod: 26,
			ATRPeriod:     14,
			ATRRiskMult:   2,
			MinSize:       0.001,
			MaxSize:       1,
		},
	}

	err = loader.Load(config)
	if err != nil {
		return nil, err
	}

	err = loader.Validate(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

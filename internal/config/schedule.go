package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScheduleConfig - расписание фоновых задач. Загружается из config.yaml,
// незаполненные поля получают значения по умолчанию.
type ScheduleConfig struct {
	Timezone              string   `yaml:"timezone"`
	CheckTimes            []string `yaml:"check_times"` // "HH:MM", минута всегда :00
	ResponseWindowMinutes int      `yaml:"response_window_minutes"`
	SweepIntervalMinutes  int      `yaml:"sweep_interval_minutes"`
	SettlementTime        string   `yaml:"settlement_time"`
	Weekly                struct {
		Weekday string `yaml:"weekday"`
		Time    string `yaml:"time"`
	} `yaml:"weekly"`
	Monthly struct {
		Day  int    `yaml:"day"`
		Time string `yaml:"time"`
	} `yaml:"monthly"`
}

// Часы проверок из исходного бота: с 6 до 22, кроме 11, 16 и 17.
var defaultCheckTimes = []string{
	"06:00", "07:00", "08:00", "09:00", "10:00",
	"12:00", "13:00", "14:00", "15:00",
	"18:00", "19:00", "20:00", "21:00", "22:00",
}

func LoadSchedule(path string) (*ScheduleConfig, error) {
	cfg := &ScheduleConfig{}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to open schedule config: %w", err)
			}
		} else {
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, fmt.Errorf("failed to parse schedule config: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("bad timezone %q: %w", cfg.Timezone, err)
	}
	for _, ct := range cfg.CheckTimes {
		if _, err := time.Parse("15:04", ct); err != nil {
			return nil, fmt.Errorf("bad check time %q: %w", ct, err)
		}
	}
	if _, err := time.Parse("15:04", cfg.SettlementTime); err != nil {
		return nil, fmt.Errorf("bad settlement time %q: %w", cfg.SettlementTime, err)
	}

	return cfg, nil
}

func (c *ScheduleConfig) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Asia/Almaty"
	}
	if len(c.CheckTimes) == 0 {
		c.CheckTimes = append([]string(nil), defaultCheckTimes...)
	}
	if c.ResponseWindowMinutes <= 0 {
		c.ResponseWindowMinutes = 10
	}
	if c.SweepIntervalMinutes <= 0 {
		c.SweepIntervalMinutes = 1
	}
	if c.SettlementTime == "" {
		c.SettlementTime = "23:59"
	}
	if c.Weekly.Weekday == "" {
		c.Weekly.Weekday = "sun"
	}
	if c.Weekly.Time == "" {
		c.Weekly.Time = "10:00"
	}
	if c.Monthly.Day <= 0 {
		c.Monthly.Day = 1
	}
	if c.Monthly.Time == "" {
		c.Monthly.Time = "10:00"
	}
}

func (c *ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *ScheduleConfig) ResponseWindow() time.Duration {
	return time.Duration(c.ResponseWindowMinutes) * time.Minute
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func (c *ScheduleConfig) WeeklyWeekday() time.Weekday {
	if d, ok := weekdays[c.Weekly.Weekday]; ok {
		return d
	}
	return time.Sunday
}

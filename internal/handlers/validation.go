package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MaxLogValue = 1_000_000
	MaxTimes    = 10
)

// ParseLogValue разбирает ручной ввод значения. Отрицательные и кривые числа
// режутся здесь, до записи в хранилище.
func ParseLogValue(input string) (float64, error) {
	input = strings.TrimSpace(strings.ReplaceAll(input, ",", "."))
	if input == "" {
		return 0, fmt.Errorf("введи число")
	}

	value, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, fmt.Errorf("это не похоже на число: %s", input)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("это не похоже на число: %s", input)
	}
	if value < 0 {
		return 0, fmt.Errorf("значение не может быть отрицательным")
	}
	if value > MaxLogValue {
		return 0, fmt.Errorf("значение не должно превышать %d", MaxLogValue)
	}
	return value, nil
}

// ParseTimes разбирает список времен напоминаний вида "08:00, 14:00, 21:00"
func ParseTimes(input string) ([]string, error) {
	parts := strings.Split(input, ",")
	if len(parts) == 0 || len(parts) > MaxTimes {
		return nil, fmt.Errorf("укажи от 1 до %d времен через запятую", MaxTimes)
	}

	times := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if len(t) != 5 || t[2] != ':' {
			return nil, fmt.Errorf("время должно быть в формате ЧЧ:ММ, получил %q", t)
		}
		hh, err := strconv.Atoi(t[:2])
		if err != nil || hh < 0 || hh > 23 {
			return nil, fmt.Errorf("неверный час в %q", t)
		}
		mm, err := strconv.Atoi(t[3:])
		if err != nil || mm < 0 || mm > 59 {
			return nil, fmt.Errorf("неверные минуты в %q", t)
		}
		times = append(times, t)
	}
	return times, nil
}

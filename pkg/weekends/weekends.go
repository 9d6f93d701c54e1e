package weekends

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// File - производственный календарь на год: по каждому месяцу список
// нерабочих дней через запятую. "+" помечает перенесенный выходной,
// "*" - сокращенный предпраздничный день (он рабочий).
type File struct {
	Year        int             `json:"year"`
	Months      []MonthWeekends `json:"months"`
	Transitions []Transition    `json:"transitions"`
	Statistic   Statistic       `json:"statistic"`
}

type MonthWeekends struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Statistic struct {
	Workdays int     `json:"workdays"`
	Holidays int     `json:"holidays"`
	Hours40  float64 `json:"hours40"`
	Hours36  float64 `json:"hours36"`
	Hours24  float64 `json:"hours24"`
}

// Day - нерабочий день календаря
type Day struct {
	Key   string // ГГГГ-ММ-ДД
	Year  int
	Month int
	Day   int
}

// ParseFile читает календарь из файла
func ParseFile(filePath string) (int, []Day, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse возвращает год календаря и его нерабочие дни по возрастанию
func Parse(r io.Reader) (int, []Day, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return 0, nil, fmt.Errorf("failed to unmarshal calendar: %w", err)
	}
	if file.Year < 1 {
		return 0, nil, fmt.Errorf("calendar year is missing")
	}

	seen := make(map[string]struct{})
	days := []Day{}

	for _, month := range file.Months {
		if month.Month < 1 || month.Month > 12 {
			return 0, nil, fmt.Errorf("invalid month %d", month.Month)
		}

		for _, raw := range strings.Split(month.Days, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" || strings.HasSuffix(raw, "*") {
				continue
			}
			raw = strings.TrimSuffix(raw, "+")

			n, err := strconv.Atoi(raw)
			if err != nil {
				return 0, nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", raw, month.Month, err)
			}

			date := time.Date(file.Year, time.Month(month.Month), n, 0, 0, 0, 0, time.UTC)
			if date.Day() != n {
				return 0, nil, fmt.Errorf("day %d does not exist in month %d", n, month.Month)
			}

			key := date.Format("2006-01-02")
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			days = append(days, Day{Key: key, Year: file.Year, Month: month.Month, Day: n})
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Key < days[j].Key })

	return file.Year, days, nil
}

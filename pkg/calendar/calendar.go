package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DateLayout - формат хранения календарного дня в базе данных
const DateLayout = "2006-01-02"

// NeverDate - значение курсора для пользователя, у которого перенос ещё не выполнялся
const NeverDate = "1970-01-01"

var ErrInvalidDate = errors.New("неверный формат даты. Используйте ДД.ММ.ГГГГ, ДД.ММ или ГГГГ-ММ-ДД")

// Calendar - единые "часы" и часовой пояс для всех точек входа.
// Все вычисления "какой сегодня день" идут только через него.
type Calendar struct {
	clock clockwork.Clock
	loc   *time.Location
}

func New(clock clockwork.Clock, loc *time.Location) *Calendar {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{clock: clock, loc: loc}
}

// NewFromZone создает календарь по имени часового пояса (например, Europe/Moscow)
func NewFromZone(clock clockwork.Clock, zone string) (*Calendar, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return New(clock, loc), nil
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

func (c *Calendar) Clock() clockwork.Clock {
	return c.clock
}

// Now возвращает текущее время в опорном часовом поясе
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// Today возвращает полночь текущего дня в опорном часовом поясе
func (c *Calendar) Today() time.Time {
	return c.Day(c.clock.Now())
}

// Day отбрасывает время суток, оставляя календарный день в опорном поясе
func (c *Calendar) Day(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// Parse разбирает дату, введенную пользователем или пришедшую из API.
// Если год не указан, берется текущий год по опорным часам.
func (c *Calendar) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	formats := []string{
		DateLayout,
		"02.01.2006",
		"02-01-2006",
		"02.01",
		"02-01",
	}

	for _, format := range formats {
		t, err := time.ParseInLocation(format, s, c.loc)
		if err != nil {
			continue
		}
		if !strings.Contains(format, "2006") {
			t = time.Date(c.Now().Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
		}
		return t, nil
	}

	return time.Time{}, ErrInvalidDate
}

// ParseKey разбирает дату в формате хранения (ГГГГ-ММ-ДД)
func (c *Calendar) ParseKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, key)
	}
	return t, nil
}

// Format возвращает ключ дня для хранения
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays сдвигает день на n календарных дней (переходы на летнее время не влияют)
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween возвращает количество календарных дней от from до to
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Later возвращает более поздний из двух дней
func Later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

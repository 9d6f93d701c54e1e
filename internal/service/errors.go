package service

import (
	"errors"

	"daily-report-bot/internal/repository"
	"daily-report-bot/pkg/calendar"
)

var (
	ErrInvalidDate      = calendar.ErrInvalidDate
	ErrUserNotFound     = repository.ErrUserNotFound
	ErrStoreUnavailable = repository.ErrStoreUnavailable
	ErrStoreFailure     = repository.ErrStoreFailure

	ErrFutureDate = errors.New("дата позже сегодняшнего дня")

	ErrInvalidTaskID = errors.New("некорректный идентификатор задачи")

	ErrAlreadyCheckedIn  = errors.New("вы уже отметили приход сегодня")
	ErrNotCheckedIn      = errors.New("сегодня нет отметки о приходе")
	ErrAlreadyCheckedOut = errors.New("уход сегодня уже отмечен")

	ErrInvalidAbsenceType = errors.New("неизвестный тип отсутствия")
	ErrInvalidPeriod      = errors.New("дата окончания не может быть раньше даты начала")
	ErrAbsenceConflict    = errors.New("период пересекается с существующим отпуском/больничным/отгулом")
	ErrAbsenceNotFound    = errors.New("период отсутствия не найден")
)

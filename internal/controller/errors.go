package controller

import "errors"

// Ошибки контроллера.
//
// Недопустимый переход статуса — всегда баг в коде контроллера,
// а не ошибка данных: снаружи состояние jobs не меняется.
var (
	// ErrInvalidTransition — попытка перевести job в статус,
	// недостижимый из текущего.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrIndexOutOfRange — обращение к job по индексу вне набора.
	ErrIndexOutOfRange = errors.New("job index out of range")
)

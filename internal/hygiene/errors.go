package hygiene

import "errors"

// Ошибки конфигурации проверок гигиены.
var (
	// ErrNoChecks — блок hygiene не включает ни одной проверки.
	ErrNoChecks = errors.New("hygiene block enables no checks")

	// ErrNoExtensions — задан header, но не заданы расширения файлов.
	ErrNoExtensions = errors.New("header check requires extensions")
)

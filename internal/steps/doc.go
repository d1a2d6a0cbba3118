// Package steps содержит встроенные шаги пайплайна.
//
// # Обзор
//
// Каждый встроенный шаг — фабрика: по опциям with из пайплайна она
// собирает runner.Action. Вся валидация опций происходит при сборке,
// до старта первого job: ошибка Build — ошибка конфигурации пайплайна,
// а не провал шага.
//
// # Интерфейс Factory
//
// Все встроенные шаги реализуют интерфейс Factory:
//
//	type Factory interface {
//	    Uses() string
//	    Build(opts map[string]string) (runner.Action, error)
//	}
//
// # Registry
//
// Registry сопоставляет имя из поля uses фабрике:
//
//	registry := steps.DefaultRegistry()  // checkout, toolchain, cache-restore, cache-save, run
//	factory, err := registry.Get("checkout")
//	if err != nil {
//	    // неизвестный шаг
//	}
//	action, err := factory.Build(step.With)
//
// # Встроенные шаги
//
// ## run (shell.go)
//
// Выполняет shell-команду через sh -c. Значения измерений job
// доступны команде как переменные окружения MATRIX_<ИЗМЕРЕНИЕ>.
//
//	with:
//	  command: cargo test --features "$MATRIX_FEATURES"
//	  dir: ./crates/core        # опционально
//
// ## checkout (checkout.go)
//
// Клонирует git-репозиторий в рабочую директорию.
//
//	with:
//	  url: https://github.com/acme/widget.git
//	  ref: main                 # опционально: ветка/тег/коммит
//	  dir: src                  # опционально, по умолчанию "."
//	  depth: "1"                # опционально: shallow clone
//	  submodules: "true"        # опционально: init сабмодулей
//
// ## toolchain (toolchain.go)
//
// Проверяет, что инструмент доступен в PATH, опционально сверяя
// версию по подстроке в выводе --version.
//
//	with:
//	  name: go
//	  version: "1.24"           # опционально
//
// ## cache-restore / cache-save (cache.go)
//
// Файловый кэш между запусками. Ключ обычно содержит значения
// измерений, чтобы jobs матрицы не затирали кэш друг друга.
//
//	with:
//	  key: deps-${matrix.features}
//	  path: target
//	  store: /var/cache/conveyor  # опционально
//
// Промах cache-restore — не провал шага: job продолжается с пустой
// директорией, а cache-save в конце наполнит кэш.
//
// # Обработка ошибок
//
// Фабрики возвращают ErrUnknownStep и ErrInvalidOptions. Сами
// действия следуют контракту runner.Action: проблемы инфраструктуры —
// через error, провал проверяемой команды — через ActionResult.Error.
//
// # Файлы пакета
//
//   - step.go      — интерфейс Factory, ошибки, helpers опций
//   - registry.go  — Registry для получения Factory по uses
//   - shell.go     — run
//   - checkout.go  — checkout
//   - toolchain.go — toolchain
//   - cache.go     — cache-restore, cache-save
package steps

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline — сохранённое определение pipeline.
//
// Pipeline — это "рецепт" проверки: матрица измерений, политика выполнения
// и шаги. Source хранит исходный YAML как есть; Version увеличивается
// при каждом apply, чтобы история запусков ссылалась на конкретную редакцию.
type Pipeline struct {
	// ID — уникальный идентификатор pipeline.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя pipeline (например, "build-verify").
	Name string `json:"name"`

	// Version — номер редакции (1, 2, 3, ...). Автоинкремент при apply.
	Version int `json:"version"`

	// Source — исходный YAML-текст определения.
	Source string `json:"source,omitempty"`

	// IsActive — флаг активности. Неактивные pipelines не запускаются по расписанию.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания pipeline.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего apply.
	UpdatedAt time.Time `json:"updated_at"`
}

// PipelineSpec — разобранное определение pipeline (содержимое YAML-файла).
//
// Это "программа" для Conveyor: какие измерения развернуть, какие
// комбинации исключить, какие шаги выполнить для каждого job.
type PipelineSpec struct {
	// Name — имя pipeline.
	Name string `yaml:"name" json:"name"`

	// Description — описание назначения pipeline.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Matrix — измерения и исключения для развёртки в набор jobs.
	Matrix MatrixDef `yaml:"matrix" json:"matrix"`

	// Policy — политика выполнения (fail_fast, max_parallel).
	Policy *PolicyDef `yaml:"policy,omitempty" json:"policy,omitempty"`

	// Steps — упорядоченный список шагов, общий для всех jobs.
	Steps []StepDef `yaml:"steps" json:"steps"`

	// Hygiene — настройки проверок гигиены репозитория
	// (отдельный одно-job'овый pipeline, не часть матрицы).
	Hygiene *HygieneDef `yaml:"hygiene,omitempty" json:"hygiene,omitempty"`
}

// MatrixDef — описание матрицы jobs.
type MatrixDef struct {
	// Dimensions — именованные оси в порядке объявления.
	// Порядок определяет порядок перечисления jobs.
	Dimensions []DimensionDef `yaml:"dimensions" json:"dimensions"`

	// Exclude — частичные назначения; полностью совпавшие кандидаты
	// выбрасываются из развёртки.
	Exclude []map[string]string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// DimensionDef — одна ось матрицы.
type DimensionDef struct {
	// Name — имя измерения, уникальное в рамках матрицы.
	Name string `yaml:"name" json:"name"`

	// Values — упорядоченный непустой список значений.
	Values []string `yaml:"values" json:"values"`
}

// PolicyDef — политика выполнения run.
type PolicyDef struct {
	// FailFast — остановить диспетчеризацию после первого FAILED.
	// По умолчанию true. Уже запущенные jobs дорабатывают до конца.
	FailFast *bool `yaml:"fail_fast,omitempty" json:"fail_fast,omitempty"`

	// MaxParallel — максимум одновременно выполняемых jobs.
	// По умолчанию 1. Значение < 0 — ошибка конфигурации.
	MaxParallel int `yaml:"max_parallel,omitempty" json:"max_parallel,omitempty"`
}

// StepDef — определение шага в pipeline.
//
// Шаг задаётся либо встроенным типом (uses: checkout, toolchain,
// cache-restore, cache-save), либо произвольной shell-командой (run).
type StepDef struct {
	// Name — человекочитаемое имя шага. Попадает в failing_step при ошибке.
	Name string `yaml:"name" json:"name"`

	// Uses — тип встроенного шага. Пусто, если шаг задан через Run.
	Uses string `yaml:"uses,omitempty" json:"uses,omitempty"`

	// Run — shell-команда (выполняется через sh -c).
	// Поддерживает подстановки ${matrix.<имя измерения>}.
	Run string `yaml:"run,omitempty" json:"run,omitempty"`

	// With — опции встроенного шага (зависят от Uses).
	// Значения поддерживают подстановки ${matrix.*}.
	With map[string]string `yaml:"with,omitempty" json:"with,omitempty"`

	// When — предикат: частичное назначение измерений.
	// Шаг выполняется только если каждая пара совпадает с JobSpec.
	// Пустой When — безусловный шаг.
	When map[string]string `yaml:"when,omitempty" json:"when,omitempty"`
}

// HygieneDef — настройки проверок гигиены репозитория.
type HygieneDef struct {
	// AuthorsFile — путь к файлу AUTHORS относительно корня репозитория.
	AuthorsFile string `yaml:"authors_file,omitempty" json:"authors_file,omitempty"`

	// AllowedAuthors — авторы, которым разрешено отсутствовать в AUTHORS
	// (например, боты: "dependabot[bot]").
	AllowedAuthors []string `yaml:"allowed_authors,omitempty" json:"allowed_authors,omitempty"`

	// Header — строка copyright, которая должна присутствовать
	// в начале каждого исходного файла.
	Header string `yaml:"header,omitempty" json:"header,omitempty"`

	// HeaderDepth — сколько первых строк файла сканировать в поисках Header.
	// По умолчанию 5.
	HeaderDepth int `yaml:"header_depth,omitempty" json:"header_depth,omitempty"`

	// Extensions — расширения файлов, подлежащих проверке заголовков
	// (например, [".rs", ".go"]).
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

package matrix

import "regexp"

// placeholderRe — плейсхолдер вида ${matrix.<имя измерения>}.
var placeholderRe = regexp.MustCompile(`\$\{matrix\.([A-Za-z0-9_.-]+)\}`)

// Placeholders возвращает имена измерений, на которые ссылается строка
// через плейсхолдеры ${matrix.<имя>}. Дубликаты не схлопываются:
// валидатору пайплайна важен каждый случай употребления.
func Placeholders(s string) []string {
	matches := placeholderRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Render подставляет значения измерений job в плейсхолдеры
// ${matrix.<имя>}. Ссылки на неизвестные измерения остаются как есть:
// их отлавливает валидация пайплайна до развёртки, Render же обязан
// быть тотальным.
func Render(s string, spec JobSpec) string {
	if !placeholderRe.MatchString(s) {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := spec.Get(name); ok {
			return v
		}
		return m
	})
}

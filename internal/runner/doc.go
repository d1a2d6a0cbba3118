// Package runner выполняет один job: последовательность шагов
// строго в объявленном порядке.
//
// Включает:
//   - runner.go — цикл выполнения шагов с предикатами и fail-stop
//   - action.go — интерфейс Action и результат выполнения
//   - shell.go  — запуск shell-команд через os/exec
//
// Runner не знает про матрицу, очереди и персистентность: на входе
// JobSpec и шаги, на выходе JobResult. Retry на этом уровне нет —
// упавший шаг финален для своего job.
package runner

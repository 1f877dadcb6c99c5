// Package fuzztests houses Go fuzz harnesses for the quest pipeline
// (source -> parser -> lint, signature binding and formatting). Its goal is
// to guard against panics, hangs and broken spans on arbitrary inputs.
//
// Назначение: запускать fuzz-обработчики, которые загружают байты в FileSet и
// прогоняют их через парсер, проверки и форматтер.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/parser, internal/lint,
// internal/signature, internal/format, internal/testkit.
package fuzztests

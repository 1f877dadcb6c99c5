// Package format rewrites the layout of a quest template without touching
// its meaning.
//
// Назначение: выравнивание строк по классификации парсера (отступы действий,
// хвостовые пробелы, пустые строки в QBN).
// Не делает: переупорядочивания блоков, правки текста сообщений или IO.
// Зависимости: internal/parser, internal/source.
package format

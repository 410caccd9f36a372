// Package doc defines the formatting document: the layout vocabulary that
// language front ends build and the printer consumes.
//
// A Document is a flat, ordered sequence of Elements. Container elements
// (Indent, Group, conditional content, LineSuffix, List, BestFitting) own
// their children, so a Document built with the constructors in this package
// is always well nested. Front ends that prefer writing a linear stream use
// Buffer, which records start/end tags and assembles them into the nested
// form, reporting unbalanced tags as ErrUnbalanced.
//
// Назначение: общий IR для всех фронтендов форматтера.
// Не делает: печать, измерение ширины, разбор исходников.
package doc

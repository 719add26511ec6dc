// Package csharp implements syntax.Parser for C# source using tree-sitter.
//
// Only declarations the analyzer needs are lowered: using directives,
// block and file-scoped namespaces, classes, constructors, methods and their
// parameters. Structs, interfaces, records, enums and member bodies are
// dropped.
package csharp

// Extension is the file extension of C# sources.
const Extension = ".cs"

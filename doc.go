// Package xltpl reverse-engineers xlsx templates into typed schemas and
// fills them from extracted JSON documents.
//
// Analysis classifies every cell of a template as formula, input, label,
// header, or empty, records merged regions and data validation rules, and
// associates each input with its describing label:
//
//	schema, err := xltpl.AnalyzeTemplate("underwriting.xlsx")
//
// Filling writes values from a JSON document into a copy of the template,
// driven by a declarative mapping config. Formula cells are never
// overwritten; repeating row blocks are sized by their Total anchor and
// reconciled so unused rows disappear:
//
//	report, err := xltpl.Fill("underwriting.xlsx", doc, "out.xlsx",
//		xltpl.WithMappingsFile("mappings.json"))
//
// Values pass through named or inline "expr:" transforms on the way in,
// and every mapping's outcome lands in the returned FillReport.
package xltpl

// Package openapi exports contract descriptors as an OpenAPI 3 document.
//
// Path templates are rewritten from ":id" to "{id}", declared shapes become
// schemas by reflection, and the result encoding picks the response media
// type:
//
//	doc, err := openapi.Generate(ctx, openapi.Info{Title: "users"}, ops)
//	out, err := openapi.Encode(doc, openapi.FormatYAML)
package openapi

// Package docs отдает OpenAPI-описание API. Файл openapi.json ведется
// вручную и встраивается в бинарник.
package docs

import _ "embed"

//go:embed openapi.json
var OpenAPISpec []byte

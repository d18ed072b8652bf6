// Package postgres embebe las migraciones SQL en el binario.
package postgres

import "embed"

// FS contiene los archivos de migración.
//
//go:embed *.sql
var FS embed.FS

// Dir es el directorio dentro de FS donde viven las migraciones.
const Dir = "."

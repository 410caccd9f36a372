// Package fuzztests holds fuzz targets for the JSON front end and the
// printer. Run them with `go test -fuzz=. ./internal/fuzz`.
package fuzztests

// Package domain contains the core concepts of the signature-field service:
// the signature request, its placement rectangles, the field-definition
// document handed to the PDF toolkit and the error taxonomy shared by the
// pipeline and the HTTP layer.
// Keep this package free of transport (HTTP) and infrastructure (processes, Redis, Postgres) concerns.
package domain

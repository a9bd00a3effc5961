package store

import _ "embed"

// SchemaSQL holds the DDL for the case tables. Applied by the integration
// test suite and by deploy tooling.
//
//go:embed schema.sql
var SchemaSQL string

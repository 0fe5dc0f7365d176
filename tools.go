//go:build tools

package main

// Keeps the swagger generator pinned alongside the annotations it reads.
import (
	_ "github.com/swaggo/swag/cmd/swag"
)

package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"pathwise.app/audit/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}

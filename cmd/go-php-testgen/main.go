/*
go-php-testgen (Entry Point)

Scans a Moodle plugin, extracts classes, functions, requires and inheritance
from each PHP file, and writes skeleton PHPUnit tests for the public API it finds.
*/
package main

import (
	"github.com/whit3rabbit/phptestgen/cmd/go-php-testgen/cmd"
)

func main() {
	cmd.Execute()
}

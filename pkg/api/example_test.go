package api_test

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/whit3rabbit/phptestgen/pkg/api"
)

// Example shows how to extract facts from PHP source.
func Example() {
	gen, err := api.NewGenerator(api.Options{Silent: true, LogOutput: io.Discard})
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	facts, err := gen.AnalyzeCode(`<?php
namespace local_demo;
class greeter {
    public function hello($name) {}
}
`)
	if err != nil {
		log.Fatalf("Failed to analyze code: %v", err)
	}

	for _, fn := range facts.Functions {
		fmt.Println(fn.FullName, len(fn.Arguments))
	}
	// Output: local_demo\greeter::hello 1
}

// ExampleGenerator_RenderCode renders a test skeleton for a library file.
func ExampleGenerator_RenderCode() {
	gen, err := api.NewGenerator(api.Options{Component: "local_demo", LogOutput: io.Discard})
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	out, err := gen.RenderCode("<?php function local_demo_hello() {}", "lib.php")
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "class ") || strings.Contains(line, "public function") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// class test_lib extends \advanced_testcase {
	// public function test_local_demo_hello() {
}

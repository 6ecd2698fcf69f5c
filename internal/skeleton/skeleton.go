// Package skeleton renders PHPUnit test skeletons for Moodle plugin files.
package skeleton

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/whit3rabbit/phptestgen/internal/analysis"
)

// ErrNothingToTest is returned when a file has no public, concrete, non-magic function.
var ErrNothingToTest = errors.New("no testable functions")

// DefaultTestsDir is the plugin-relative directory test files are written to.
const DefaultTestsDir = "tests"

const licenseHeader = `<?php
// This file is part of Moodle - https://moodle.org/
//
// Moodle is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Moodle is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Moodle.  If not, see <https://www.gnu.org/licenses/>.
`

const pendingLines = "\t\t$this->resetAfterTest(false);\n" +
	"\t\t// Fail this test for now.\n" +
	"\t\t$this->assertTrue(false, \"This test needs to be completed\");\n\n"

// Renderer turns the facts of one plugin file into test file text.
type Renderer struct {
	// Component is the plugin's frankenstyle name, used as the test namespace and @package.
	Component string
	// Year for @copyright. Zero means the current year.
	Year int
	// EventTriggers adds a test_trigger method for classes extending \core\event\base.
	EventTriggers bool
}

// TestBaseName maps a plugin-relative source path to its test file name:
// classes/task/cleanup.php becomes classes_task_test_cleanup.php.
func TestBaseName(relPath string) string {
	relPath = strings.Trim(path.Clean(strings.ReplaceAll(relPath, `\`, "/")), "/")
	dir, base := path.Split(relPath)
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return "test_" + base
	}
	return strings.ReplaceAll(dir, "/", "_") + "_test_" + base
}

// TestFileName returns the plugin-relative path of the test file for relPath.
func TestFileName(relPath string) string {
	return path.Join(DefaultTestsDir, TestBaseName(relPath))
}

// TestClassName returns the PHP class name for the test of relPath. It is the
// test file name without extension, so it is unique within the tests directory.
func TestClassName(relPath string) string {
	stem := strings.TrimSuffix(TestBaseName(relPath), path.Ext(relPath))
	var b strings.Builder
	for i, r := range stem {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= 0x80:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Testable reports whether fn gets a generated test method.
func Testable(fn *analysis.Function) bool {
	return fn.IsPublic() && !fn.IsMagic() && !fn.IsAbstract()
}

// Render returns the test file for facts. relPath is the source file's path
// relative to the plugin directory.
func (r *Renderer) Render(facts *analysis.Facts, relPath string) ([]byte, error) {
	relPath = strings.TrimLeft(strings.ReplaceAll(relPath, `\`, "/"), "/")

	var methods strings.Builder
	names := make(testNames)
	tested := 0
	for i := range facts.Functions {
		fn := &facts.Functions[i]
		if !Testable(fn) {
			continue
		}
		name := names.claim("test_"+fn.Name, fallbackName(fn))
		r.writeMethod(&methods, facts, fn, name)
		tested++
	}
	if r.EventTriggers {
		for _, c := range facts.Classes {
			if ext, ok := facts.Extends[c.Name]; ok && analysis.IsEventBase(ext.Name) {
				name := names.claim("test_trigger", "test_"+c.Name+"_event_trigger")
				writeTrigger(&methods, name, `\`+facts.QualifiedClass(c.Name))
				tested++
			}
		}
	}
	if tested == 0 {
		return nil, fmt.Errorf("%s: %w", relPath, ErrNothingToTest)
	}

	var out strings.Builder
	r.writeFileTop(&out, relPath)
	out.WriteString(methods.String())
	out.WriteString("}\n")
	return []byte(out.String()), nil
}

func (r *Renderer) writeFileTop(b *strings.Builder, relPath string) {
	year := r.Year
	if year == 0 {
		year = time.Now().Year()
	}

	b.WriteString(licenseHeader)
	b.WriteString("\n")
	if r.Component != "" {
		fmt.Fprintf(b, "namespace %s;\n\n", r.Component)
	}
	b.WriteString("defined('MOODLE_INTERNAL') || die();\n\n")
	fmt.Fprintf(b, "require_once(__DIR__ . '/../%s');\n\n", relPath)
	b.WriteString("/**\n")
	fmt.Fprintf(b, " * Test script for %s.\n", relPath)
	b.WriteString(" *\n")
	fmt.Fprintf(b, " * @package     %s\n", r.Component)
	fmt.Fprintf(b, " * @copyright   %d\n", year)
	b.WriteString(" * @author\n")
	b.WriteString(" * @license     http://www.gnu.org/copyleft/gpl.html GNU GPL v3 or later\n")
	b.WriteString(" */\n")
	fmt.Fprintf(b, "class %s extends \\advanced_testcase {\n\n", TestClassName(relPath))
}

// testNames tracks the test methods already written to one file, lower-cased
// because PHP method names are case-insensitive.
type testNames map[string]bool

// claim returns the first of candidates not yet used, or the last one with a
// numeric suffix, and marks it used.
func (n testNames) claim(candidates ...string) string {
	for _, name := range candidates {
		if !n[strings.ToLower(name)] {
			n[strings.ToLower(name)] = true
			return name
		}
	}
	last := candidates[len(candidates)-1]
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s_%d", last, i)
		if !n[strings.ToLower(name)] {
			n[strings.ToLower(name)] = true
			return name
		}
	}
}

// fallbackName is the test method name used when test_<name> is taken.
func fallbackName(fn *analysis.Function) string {
	if fn.Class != "" {
		return "test_" + fn.Class + "_" + fn.Name
	}
	return "test_" + fn.Name + "_function"
}

func (r *Renderer) writeMethod(b *strings.Builder, facts *analysis.Facts, fn *analysis.Function, name string) {
	fmt.Fprintf(b, "\t/**\n\t * Testing %s()\n \t */\n", fn.Name)
	fmt.Fprintf(b, "\tpublic function %s() {\n\n", name)
	b.WriteString(pendingLines)

	result := localVar(fn.Name)
	instance := fn.Class != "" && !fn.IsStatic()
	variable := instanceVar(fn)
	if instance {
		b.WriteString(instanceLines(facts, fn.Class, variable))
		b.WriteString("\n\n")
	}

	args := argumentLines(b, fn.Arguments)
	if instance {
		fmt.Fprintf(b, "\t\t%s = %s->%s(%s);\n", result, variable, fn.Name, args)
	} else {
		fmt.Fprintf(b, "\t\t%s = \\%s(%s);\n", result, fn.FullName, args)
	}

	fmt.Fprintf(b, "\t\t$this->assertNotEmpty(%s, 'Provide a better assertion here!');\n", result)
	b.WriteString("\t}\n\n")
}

// instanceVar names the object under test after its class, unless one of
// the method's argument placeholders already uses that name.
func instanceVar(fn *analysis.Function) string {
	variable := localVar(fn.Class)
	for _, arg := range fn.Arguments {
		if arg.Name == variable {
			return "$" + fn.Class + "_instance"
		}
	}
	return variable
}

// instanceLines builds the object under test: constructor argument
// placeholders and the new expression, a mock for abstract classes and
// traits, or the first case of an enum.
func instanceLines(facts *analysis.Facts, class, variable string) string {
	qualified := `\` + facts.QualifiedClass(class)

	var lines []string
	var args []string
	if ctor := facts.Constructor(class); ctor != nil {
		for _, arg := range ctor.Arguments {
			lines = append(lines, fmt.Sprintf("\t\t%s = null;\t// Provide a value here.", arg.Name))
			args = append(args, arg.Name)
		}
	}

	decl := facts.Class(class)
	switch {
	case decl != nil && decl.Kind == analysis.KindEnum:
		lines = append(lines, fmt.Sprintf("\t\t%s = %s::cases()[0];", variable, qualified))
	case decl != nil && decl.Kind == analysis.KindTrait:
		lines = append(lines, fmt.Sprintf("\t\t%s = $this->getMockForTrait('%s', [%s]);", variable, qualified, strings.Join(args, ", ")))
	case decl != nil && decl.Abstract:
		lines = append(lines, fmt.Sprintf("\t\t%s = $this->getMockForAbstractClass('%s', [%s]);", variable, qualified, strings.Join(args, ", ")))
	default:
		lines = append(lines, fmt.Sprintf("\t\t%s = new %s(%s);", variable, qualified, strings.Join(args, ", ")))
	}
	return strings.Join(lines, "\n")
}

// argumentLines writes one placeholder per argument and returns the call's argument list.
func argumentLines(b *strings.Builder, arguments []analysis.Argument) string {
	var args []string
	for _, arg := range arguments {
		if arg.Variadic {
			fmt.Fprintf(b, "\t\t%s = [];\t// Provide values here.\n", arg.Name)
			args = append(args, "..."+arg.Name)
			continue
		}
		fmt.Fprintf(b, "\t\t%s = null;\t// Provide a value here.\n", arg.Name)
		args = append(args, arg.Name)
	}
	return strings.Join(args, ", ")
}

func writeTrigger(b *strings.Builder, name, class string) {
	b.WriteString("\t/**\n\t * Testing the event can be triggered.\n \t */\n")
	fmt.Fprintf(b, "\tpublic function %s() {\n", name)
	b.WriteString("\t\t$this->resetAfterTest();\n\n")
	b.WriteString("\t\t$sink = $this->redirectEvents();\n\n")
	b.WriteString("\t\t/* Here ensure to define the event properties that are required */\n")
	b.WriteString("\t\t$eventdata = array(\n")
	b.WriteString("\t\t\t\"other\" => array(\"message\" => \"This is just a test\")\n")
	b.WriteString("\t\t);\n\n")
	fmt.Fprintf(b, "\t\t$event = %s::create($eventdata);\n", class)
	b.WriteString("\t\t$event->trigger();\n\n")
	b.WriteString("\t\t$events = $sink->get_events();\n")
	b.WriteString("\t\t$this->assertGreaterThan(0, count($events));\n\n")
	b.WriteString("\t\tforeach ($events as $event) {\n")
	fmt.Fprintf(b, "\t\t\tif ($event instanceof %s) {\n", class)
	b.WriteString("\t\t\t\tbreak;\n")
	b.WriteString("\t\t\t}\n")
	b.WriteString("\t\t}\n")
	fmt.Fprintf(b, "\t\t$this->assertInstanceOf('%s', $event);\n", class)
	b.WriteString("\t}\n\n")
}

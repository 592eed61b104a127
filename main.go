package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/crillab/gopherlp/expr"
	"github.com/crillab/gopherlp/logger"
	"github.com/crillab/gopherlp/lp"
)

func main() {
	var verbose bool
	flag.BoolVar(&verbose, "verbose", false, "sets verbose mode on")
	flag.Parse()
	if len(flag.Args()) != 1 {
		fmt.Fprintf(os.Stderr, "Syntax : %s [options] file.lp\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !verbose {
		logger.Disable()
	}
	path := flag.Args()[0]
	fmt.Printf("c solving %s\n", path)
	if err := run(path); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run executes an lp script. Every line is either a directive (a variable
// declaration, push, pop or check) or a formula asserted in the current
// scope. Lines starting with "#" are comments.
func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open %q: %v", path, err)
	}
	defer f.Close()

	s := lp.NewSolver()
	sc := bufio.NewScanner(f)
	nbLine := 0
	for sc.Scan() {
		nbLine++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := command(s, line); err != nil {
			return fmt.Errorf("line %d: %v", nbLine, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("could not read %q: %v", path, err)
	}
	return nil
}

func command(s *lp.Solver, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "signed", "unsigned", "bool":
		sorts := map[string]lp.Sort{"signed": lp.Signed, "unsigned": lp.Unsigned, "bool": lp.Boolean}
		if len(fields) < 2 {
			return fmt.Errorf("%s: expected at least one variable name", fields[0])
		}
		for _, name := range fields[1:] {
			if _, err := s.NewVariable(name, sorts[fields[0]]); err != nil {
				return fmt.Errorf("could not declare %q: %v", name, err)
			}
		}
	case "push":
		s.Push()
	case "pop":
		if err := s.Pop(); err != nil {
			return err
		}
	case "check":
		check(s, fields[1:])
	default:
		form, err := expr.Parse(strings.NewReader(line), s.IsBool)
		if err != nil {
			return fmt.Errorf("could not parse formula: %v", err)
		}
		if err := s.AddAssertion(form); err != nil {
			return fmt.Errorf("could not assert formula: %v", err)
		}
	}
	return nil
}

func check(s *lp.Solver, names []string) {
	query := make([]expr.LinExpr, len(names))
	for i, name := range names {
		query[i] = expr.Var(name)
	}
	res, values := s.Check(query...)
	switch res {
	case lp.Satisfiable:
		color.Green("s %v", res)
		for i, name := range names {
			fmt.Printf("v %s = %s\n", name, values[i])
		}
	case lp.Unsatisfiable:
		color.Red("s %v", res)
	default:
		color.Yellow("s %v", res)
	}
}

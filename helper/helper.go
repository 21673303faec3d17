package helper

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const argFilePrefix = "@"

// ExpandArgFiles replaces every "@path" argument with the lines of path, one
// argument per line. Argument files may reference further argument files.
func ExpandArgFiles(args []string) ([]string, error) {
	return expand(args, map[string]bool{})
}

func expand(args []string, seen map[string]bool) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, argFilePrefix) || arg == argFilePrefix {
			out = append(out, arg)
			continue
		}

		path := strings.TrimPrefix(arg, argFilePrefix)
		if seen[path] {
			return nil, fmt.Errorf("argument file %s includes itself", path)
		}
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}

		seen[path] = true
		nested, err := expand(lines, seen)
		delete(seen, path)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read argument file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read argument file %s: %w", path, err)
	}
	return lines, nil
}

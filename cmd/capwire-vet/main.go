package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/capwire/capwire/manifest"
)

// run executes the checks and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("capwire-vet", flag.ContinueOnError)
	flags.SetOutput(stderr)
	quiet := flags.Bool("q", false, "print nothing for clean files")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	files := flags.Args()
	if len(files) == 0 {
		_, _ = fmt.Fprintln(stderr, "usage: capwire-vet [-q] <wiring.yaml>...")
		return 2
	}

	exit := 0
	for _, path := range files {
		doc, err := manifest.Load(path)
		if err != nil {
			// Load's error already names the file.
			_, _ = fmt.Fprintf(stderr, "%v\n", err)
			exit = 1
			continue
		}

		findings := manifest.Lint(doc)
		if len(findings) == 0 {
			if !*quiet {
				_, _ = fmt.Fprintf(stdout, "%s: ok\n", path)
			}
			continue
		}

		exit = 1
		for _, finding := range findings {
			_, _ = fmt.Fprintf(stderr, "%s: %v\n", path, finding)
		}
	}
	return exit
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

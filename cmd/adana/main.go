// Command adana is the engine's entrypoint: it runs a script file, or
// without one starts the interactive store shell.
package main

import (
	"bufio"
	"fmt"
	"os"

	"adana/internal/eval"
	"adana/internal/nativelib"
	"adana/internal/parser"
	"adana/internal/shell"
	"adana/internal/store"
	"adana/internal/value"
)

var commandAliases = map[string]string{
	"r": "run",
	"s": "shell",
	"h": "help",
	"v": "version",
}

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run resolves a command line into an exit code. Split out of main so
// it can be driven in-process by the cmd/adana testscript harness,
// which needs a function to register rather than a function that
// always terminates the process itself.
func run(args []string) int {
	if len(args) == 0 {
		return startShell()
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
		return 0
	case "--version", "-v", "version":
		fmt.Printf("adana %s\n", version)
		return 0
	case "shell":
		return startShell()
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "run requires a script file")
			return 1
		}
		if err := runFile(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	default:
		// `adana script.adana` with no subcommand runs the file directly.
		if err := runFile(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
}

func showUsage() {
	fmt.Println("adana - embeddable scripting language and key/value store")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  adana <file>        Run a script file")
	fmt.Println("  adana run <file>    Run a script file          (alias: r)")
	fmt.Println("  adana shell         Start the interactive store shell (alias: s)")
	fmt.Println("  adana help          Show this help             (alias: h)")
	fmt.Println("  adana version       Show the version            (alias: v)")
}

func runFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}

	stmts, err := parser.Parse(string(src))
	if err != nil {
		return err
	}

	ev := eval.New(nativelib.New())
	env := value.NewEnvironment()
	result, err := ev.Run(stmts, env)
	if err != nil {
		return err
	}
	if errVal, ok := result.(value.ErrorVal); ok {
		return fmt.Errorf("%s", errVal.Msg)
	}
	return nil
}

// startShell opens the default store and drives the verb dispatcher
// off stdin until EOF or an explicit exit.
func startShell() int {
	db, err := store.Open(store.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open store: %v\n", err)
		return 1
	}
	defer db.Close()

	sh := shell.New(db, os.Stdout, os.Stderr)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "exit" || line == "quit" {
			break
		}
		if err := sh.Dispatch(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Fprint(os.Stdout, "> ")
	}
	fmt.Fprintln(os.Stdout)
	return 0
}

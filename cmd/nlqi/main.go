/*
Nlqi starts an interactive query-understanding REPL.

It reads in a compiled grammar artifact and repeatedly prompts for a query,
printing the ranked parse trees for each one until EOF or the "QUIT" command.

Usage:

	nlqi [flags]

The flags are:

	-g, --grammar FILE
		Use the provided TOML grammar artifact. Defaults to "grammar.toml" in
		the current working directory.

	-k, --kbest N
		Number of ranked trees to return per query. Defaults to 7.

	-c, --cache DIR
		Persist the compiled automaton under DIR, keyed by grammar content
		hash, so repeat runs against the same artifact skip rebuilding it.

	-w, --width N
		Terminal width to wrap result tables to. Defaults to 80.
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/dekarrin/nlquery"
	"github.com/dekarrin/nlquery/internal/result"
	"github.com/dekarrin/nlquery/internal/version"
)

const (
	ExitSuccess = iota
	ExitInitError
	ExitREPLError
)

var (
	flagGrammar = pflag.StringP("grammar", "g", "grammar.toml", "The compiled grammar artifact to load")
	flagKBest   = pflag.IntP("kbest", "k", 7, "Number of ranked trees to return per query")
	flagCache   = pflag.StringP("cache", "c", "", "Directory to persist the compiled automaton cache under")
	flagWidth   = pflag.IntP("width", "w", 80, "Terminal width to wrap result tables to")
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of nlqi and then exit")
)

func main() {
	returnCode := ExitSuccess
	defer func() { os.Exit(returnCode) }()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("nlqi v%s\n", version.Current)
		return
	}

	var opts []nlquery.Option
	opts = append(opts, nlquery.WithDefaultK(*flagKBest))
	if *flagCache != "" {
		opts = append(opts, nlquery.WithCacheDir(*flagCache))
	}

	eng, err := nlquery.Load(*flagGrammar, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "nlq> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not start interactive reader: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer rl.Close()

	fmt.Println("nlquery interactive session. Type a query, or QUIT to exit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			// io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			break
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "QUIT") {
			break
		}

		pr := eng.Parse(query, *flagKBest)
		fmt.Println(result.Format(pr, *flagWidth))
		if summary := result.FormatAmbiguitySummary(pr); summary != "" {
			fmt.Println(summary)
		}
	}

	fmt.Println("Goodbye")
}

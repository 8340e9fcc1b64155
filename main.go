// Audio Quality Inspector
//
// Vets audio libraries for DJs and collectors: decodes each file, measures
// how much genuine spectral energy sits above 16 kHz and flags files that
// look like real high-resolution masters rather than upsampled or lossy
// re-encodes.
//
// Subcommands:
//
//  1. serve   - run the Socket.IO + HTTP API consumed by the frontend
//  2. scan    - batch-scan files and directories from the terminal
//  3. analyze - inspect a single file, optionally rendering its spectrogram
//  4. history - print recently stored scan results
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		protocol := serveCmd.String("proto", "http", "Protocol to use (http or https)")
		port := serveCmd.String("p", "5000", "Port to use")
		serveCmd.Parse(os.Args[2:])

		serve(*protocol, *port)
	case "scan":
		scanCmd := flag.NewFlagSet("scan", flag.ExitOnError)
		artifacts := scanCmd.String("artifacts", "", "Directory for rendered spectrograms (empty disables rendering)")
		threshold := scanCmd.Float64("threshold", 0, "Override the quality threshold (0 keeps the configured value)")
		noHistory := scanCmd.Bool("no-history", false, "Skip writing scan history")
		scanCmd.Parse(os.Args[2:])

		if scanCmd.NArg() == 0 {
			fmt.Println("Usage: scan [flags] <file-or-directory> [...]")
			os.Exit(1)
		}
		runScan(scanCmd.Args(), *artifacts, *threshold, !*noHistory)
	case "analyze":
		analyzeCmd := flag.NewFlagSet("analyze", flag.ExitOnError)
		out := analyzeCmd.String("out", "", "Write the spectrogram PNG to this path")
		analyzeCmd.Parse(os.Args[2:])

		if analyzeCmd.NArg() != 1 {
			fmt.Println("Usage: analyze [flags] <file>")
			os.Exit(1)
		}
		runAnalyze(analyzeCmd.Arg(0), *out)
	case "history":
		historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
		limit := historyCmd.Int("n", 20, "Number of records to show")
		historyCmd.Parse(os.Args[2:])

		runHistory(*limit)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Expected 'serve', 'scan', 'analyze' or 'history' subcommand")
}

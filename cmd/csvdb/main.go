package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zakazai/csvdb/internal/executor"
	"github.com/zakazai/csvdb/internal/server"
	"github.com/zakazai/csvdb/internal/storage"
	"github.com/zakazai/csvdb/internal/types"
)

const usage = `usage: csvdb [flags] <dir> ["<statement>"]

Runs one SQL statement against the CSV tables in <dir>, or reads statements
from standard input when no statement is given.

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	storageType  string
	logLevel     string
	httpAddr     string
	snapshotDir  string
	syncInterval time.Duration
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("csvdb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.storageType, "storage", string(storage.CSVStorageType), "table storage: csv, parquet or memory")
	fs.StringVar(&opts.logLevel, "log-level", "warning", "log level: debug, info, warning, error or none")
	fs.StringVar(&opts.httpAddr, "http", "", "serve the query API on this address instead of running statements")
	fs.StringVar(&opts.snapshotDir, "snapshot", "", "write Parquet snapshots of every table to this directory")
	fs.DurationVar(&opts.syncInterval, "sync-interval", 0, "with -http and -snapshot, refresh snapshots at this interval")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 1
	}

	level, err := types.ParseLogLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	types.GlobalLogger = types.InitLogger(level, stderr)

	store, err := storage.NewStorage(storage.StorageConfig{
		Type: storage.StorageType(opts.storageType),
		Dir:  fs.Arg(0),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error initializing storage: %v\n", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(stderr, "Error closing storage: %v\n", err)
		}
	}()

	var snapshots *storage.ParquetStorage
	if opts.snapshotDir != "" {
		if snapshots, err = snapshot(store, opts.snapshotDir); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer snapshots.Close()
	}

	switch {
	case opts.httpAddr != "":
		if snapshots != nil && opts.syncInterval > 0 {
			snapshots.SetSyncInterval(opts.syncInterval)
			snapshots.StartSyncWorker()
		}
		if err := server.NewServer(opts.httpAddr, store).Run(); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	case fs.NArg() == 2:
		return execute(executor.New(store), fs.Arg(1), stdout, stderr)
	case snapshots != nil:
		// -snapshot alone writes the snapshots and exits
		return 0
	default:
		repl(executor.New(store), stdin, stdout, stderr)
		return 0
	}
}

// snapshot writes a Parquet snapshot of every table in source
func snapshot(source storage.Storage, dir string) (*storage.ParquetStorage, error) {
	snapshots, err := storage.NewParquetStorage(dir)
	if err != nil {
		return nil, err
	}
	snapshots.SetSource(source)
	if err := snapshots.Sync(); err != nil {
		snapshots.Close()
		return nil, fmt.Errorf("failed to write snapshots: %w", err)
	}
	return snapshots, nil
}

// execute runs a single statement and reports whether it failed as an exit code
func execute(exec *executor.Executor, query string, stdout, stderr io.Writer) int {
	result, err := exec.Run(query)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	printResult(stdout, result)
	return 0
}

func repl(exec *executor.Executor, stdin io.Reader, stdout, stderr io.Writer) {
	reader := bufio.NewReader(stdin)

	// Check if we're in interactive mode or piped input
	isInteractive := false
	if f, ok := stdin.(*os.File); ok {
		if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			isInteractive = true
		}
	}
	if isInteractive {
		fmt.Fprintln(stdout, "csvdb")
		fmt.Fprintln(stdout, "Type 'exit' to quit")
	}

	for {
		if isInteractive {
			fmt.Fprint(stdout, "> ")
		}

		input, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			fmt.Fprintf(stderr, "Error reading input: %v\n", err)
			return
		}
		atEOF := err == io.EOF

		// Trim whitespace and check for exit command
		input = strings.TrimSpace(input)
		if strings.ToLower(input) == "exit" {
			break
		}
		if input != "" {
			if result, err := exec.Run(input); err != nil {
				fmt.Fprintln(stderr, err)
			} else {
				printResult(stdout, result)
				if result.Columns == nil && isInteractive {
					fmt.Fprintf(stdout, "%d rows affected\n", result.RowsAffected)
				}
			}
		}

		if atEOF {
			break
		}
	}

	if isInteractive {
		fmt.Fprintln(stdout, "Goodbye!")
	}
}

// printResult renders SELECT results as a header line followed by one
// comma-joined line per row. Other statements print nothing.
func printResult(w io.Writer, result *executor.Result) {
	if result.Columns == nil {
		return
	}
	fmt.Fprintln(w, storage.JoinRecord(result.Columns))
	for _, row := range result.Rows {
		fmt.Fprintln(w, storage.JoinRecord(row))
	}
}

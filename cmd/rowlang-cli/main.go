// Command rowlang-cli runs a rowlang script over CSV input.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/rowlang/rowlang"
	"github.com/rowlang/rowlang/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "rowlang script runner (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: rowlang-cli [options] script.row\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --input FILE\n\t\tCSV input file (default: stdin)\n")
	fmt.Fprintf(os.Stderr, "  --output FILE\n\t\tCSV output file (default: stdout)\n")
	fmt.Fprintf(os.Stderr, "  --packages DIR\n\t\tDirectory searched for imported packages\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tJSON or YAML configuration file\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	inputFlag := flag.String("input", "", "CSV input file (default: stdin)")
	outputFlag := flag.String("output", "", "CSV output file (default: stdout)")
	packagesFlag := flag.String("packages", "", "Directory searched for imported packages")
	configFlag := flag.String("config", "", "JSON or YAML configuration file")

	flag.Usage = customUsage
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Get().String())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *inputFlag, *outputFlag, *packagesFlag, *configFlag); err != nil {
		log.Fatal(err)
	}
}

func run(scriptPath, inputPath, outputPath, packageDir, configPath string) error {
	source, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	script, err := rowlang.Parse(string(source))
	if err != nil {
		return fmt.Errorf("parsing script: %w", err)
	}
	if script.IsPackage() {
		return fmt.Errorf("%s is a package script, not a runnable data script", scriptPath)
	}

	rows, err := readRows(inputPath)
	if err != nil {
		return err
	}

	dst, closeDst, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeDst()

	opts := []rowlang.Option{rowlang.WithCSVOutput(dst)}
	if packageDir != "" {
		opts = append(opts, rowlang.WithPackageDirs(packageDir))
	}
	if configPath != "" {
		opts = append(opts, rowlang.WithConfigFile(configPath))
	}

	if _, err := rowlang.ExecuteBatch(script, rows, opts...); err != nil {
		return fmt.Errorf("executing script: %w", err)
	}
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// readRows parses CSV with a header line into rows. Numeric-looking cells
// become numbers, empty cells become null, everything else stays a string.
func readRows(path string) ([]rowlang.Row, error) {
	var src io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		src = f
	}

	reader := csv.NewReader(src)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]rowlang.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(rowlang.Row, len(header))
		for i, name := range header {
			if i >= len(record) {
				break
			}
			row[name] = parseCell(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCell(cell string) rowlang.Value {
	if cell == "" {
		return rowlang.Null()
	}
	if n, err := strconv.ParseFloat(cell, 64); err == nil {
		return rowlang.Num(n)
	}
	return rowlang.Str(cell)
}


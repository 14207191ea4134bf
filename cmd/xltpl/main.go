// Command xltpl analyzes xlsx templates and fills them from extracted
// JSON documents.
//
//	xltpl analyze -template underwriting.xlsx [-o schema.json]
//	xltpl fill -template underwriting.xlsx -data extracted.json -mappings mappings.json [-o out.xlsx]
//	xltpl fill -job job.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/reportkit/xltpl"
)

func main() {
	godotenv.Load()
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "fill":
		err = runFill(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		emit(map[string]string{"error": err.Error()})
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: xltpl analyze -template <xlsx> [-o <schema.json>]")
	fmt.Fprintln(os.Stderr, "       xltpl fill -template <xlsx> -data <json> -mappings <json> [-o <xlsx>]")
	fmt.Fprintln(os.Stderr, "       xltpl fill -job <yaml>")
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	template := fs.String("template", "", "template xlsx path")
	output := fs.String("o", "", "schema output path (default: stdout)")
	fs.Parse(args)

	if *template == "" {
		return fmt.Errorf("analyze: -template is required")
	}

	schema, err := xltpl.AnalyzeTemplate(*template)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	if *output == "" {
		fmt.Println(string(raw))
		return nil
	}
	if err := os.WriteFile(*output, raw, 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	emit(map[string]string{"status": "success", "output_path": *output})
	return nil
}

// fillJob is the YAML job file form of the fill arguments.
type fillJob struct {
	Template string `yaml:"template"`
	Data     string `yaml:"data"`
	Mappings string `yaml:"mappings"`
	Output   string `yaml:"output"`
}

func runFill(args []string) error {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	template := fs.String("template", "", "template xlsx path")
	data := fs.String("data", "", "extracted JSON document path")
	mappings := fs.String("mappings", "", "mapping config path")
	output := fs.String("o", "", "output xlsx path (default: timestamped sibling of template)")
	jobPath := fs.String("job", "", "YAML job file with template/data/mappings/output")
	fs.Parse(args)

	if *jobPath != "" {
		raw, err := os.ReadFile(*jobPath)
		if err != nil {
			return fmt.Errorf("read job file: %w", err)
		}
		var job fillJob
		if err := yaml.Unmarshal(raw, &job); err != nil {
			return fmt.Errorf("parse job file %q: %w", *jobPath, err)
		}
		*template, *data, *mappings, *output = job.Template, job.Data, job.Mappings, job.Output
	}

	if *template == "" || *data == "" || *mappings == "" {
		return fmt.Errorf("fill: -template, -data and -mappings are required (or -job)")
	}

	doc, err := xltpl.LoadDocument(*data)
	if err != nil {
		return err
	}

	report, err := xltpl.Fill(*template, doc, *output, xltpl.WithMappingsFile(*mappings))
	if err != nil {
		return err
	}

	emit(report)
	return nil
}

func emit(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf(`{"error": %q}`, err.Error())
		return
	}
	fmt.Println(string(raw))
}

package main

import (
	"flag"
	"log"

	"github.com/danmuck/poslink/internal/config"
)

func main() {
	kind := flag.String("kind", "suite", "template kind: suite|minimal")
	output := flag.String("output", "poslink.toml", "output path for the roster template")
	validate := flag.Bool("validate", false, "validate an existing roster")
	input := flag.String("input", "poslink.toml", "roster path for validation")
	force := flag.Bool("force", false, "overwrite existing roster")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadSuiteConfig(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated roster at %s: %d terminals, %d printers", *input, len(cfg.Terminals), len(cfg.Printers))
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s roster template to %s", *kind, *output)
}

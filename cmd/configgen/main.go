package main

import (
	"flag"
	"log"

	"github.com/danmuck/leobridge/internal/config"
	"github.com/danmuck/leobridge/internal/outline"
)

func main() {
	kind := flag.String("kind", "bridge", "template kind: bridge|outline")
	output := flag.String("output", "", "output path for the template")
	validate := flag.Bool("validate", false, "validate an existing file")
	input := flag.String("input", "", "path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "bridge":
			if _, err := config.LoadBridgeConfig(path); err != nil {
				log.Fatal(err)
			}
		case "outline":
			doc, err := outline.Open(path)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("Outline %s has %d unique nodes", path, doc.Len())
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s file at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "bridge":
		return "cmd/leobridge/config.toml"
	case "outline":
		return "cmd/leobridge/sample.yaml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}

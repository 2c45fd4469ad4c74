// Command musgen writes the mus serializers for the index record types into
// core/records_mus.gen.go. It runs through go generate in ./core.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	"github.com/poiesic/boroughs/core"
)

const (
	corePkg = "github.com/poiesic/boroughs/core"
	genFile = "records_mus.gen.go"
)

func main() {
	if err := generate(); err != nil {
		slog.Error("musgen failed", "error", err)
		os.Exit(1)
	}
}

func generate() error {
	g, err := musgen.NewCodeGenerator(genops.WithPkgPath(corePkg))
	if err != nil {
		return err
	}

	g.AddDefinedType(reflect.TypeFor[core.ID]())

	// Id, Position, Text, Vector; field order is the wire order
	if err := g.AddStruct(reflect.TypeFor[core.ChunkRecord](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField()); err != nil {
		return fmt.Errorf("chunk record: %w", err)
	}

	src, err := g.Generate()
	if err != nil {
		return err
	}

	out, err := outputPath()
	if err != nil {
		return err
	}
	slog.Info("writing serializers", "path", out)
	return os.WriteFile(out, src, 0644)
}

// outputPath targets the core package whether run from it or from the
// module root.
func outputPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if filepath.Base(cwd) == "core" {
		return genFile, nil
	}
	return filepath.Join("core", genFile), nil
}

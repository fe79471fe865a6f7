// wirecodecdump attaches a decoder to a captured wirecodec byte stream and
// dumps a readable trace of the values it decodes, exercising the full
// stack (C1-C8) end to end over a file instead of a live peer. Supplements
// the codec itself: the distillation dropped gapid's cmd/gapit family of
// stream-inspection tools, and every corpus repo with a cmd/ tree gives
// operators a small binary to poke at its own wire format by hand.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/codecconf"
	"github.com/brevity-dev/wirecodec/internal/log"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/streamio"
	"github.com/brevity-dev/wirecodec/value"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "wirecodecdump: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var inPath, profilePath, modeFlag, genericsFlag, typeName string
	var asObject bool
	var count int

	flagSet := pflag.NewFlagSet("wirecodecdump", pflag.ContinueOnError)
	flagSet.StringVar(&inPath, "in", "", "path to a captured wirecodec byte stream (required)")
	flagSet.StringVar(&profilePath, "profile", "", "optional codecconf YAML session profile (overrides --mode/--generics)")
	flagSet.StringVar(&modeFlag, "mode", "full", "metadata mode: none, hash, or full")
	flagSet.StringVar(&genericsFlag, "generics", "normal", "generics mode: normal or all")
	flagSet.StringVar(&typeName, "type", "", "registered type name to decode (omit with --object for a class-based Object)")
	flagSet.BoolVar(&asObject, "object", false, "decode a class-based Object instead of a named type")
	flagSet.IntVar(&count, "count", 1, "number of sequential values to decode")
	help := flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			flagSet.PrintDefaults()
			return nil
		}
		return err
	}
	if *help {
		flagSet.PrintDefaults()
		return nil
	}
	if inPath == "" {
		return errors.New("--in is required")
	}
	if !asObject && typeName == "" {
		return errors.New("--type is required unless --object is set")
	}

	mode, generics := negotiate.FullMetadata, negotiate.NormalGenerics
	types, classes, names := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	if profilePath != "" {
		profile, err := codecconf.Load(profilePath)
		if err != nil {
			return err
		}
		cfg := profile.Config()
		mode, generics = cfg.Mode, cfg.Generics
		profile.SeedStreams(types, classes)
	} else {
		var err error
		mode, err = parseMode(modeFlag)
		if err != nil {
			return err
		}
		generics, err = parseGenerics(genericsFlag)
		if err != nil {
			return err
		}
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return errors.Wrap(err, "reading input stream")
	}

	bits := bitio.New(streamio.FromReadWriter(bytes.NewReader(data), nil))
	session := value.NewSession(bits, registry.Global, mode, generics, types, classes, names)
	logger := log.New("wirecodecdump", log.Info)

	for i := 0; i < count; i++ {
		var v interface{}
		var err error
		if asObject {
			v, err = session.ReadObject()
		} else {
			v, err = session.ReadValue(typeName)
		}
		if err != nil {
			return errors.Wrapf(err, "decoding value %d", i)
		}
		logger.I("value %d: %#v", i, v)
	}
	return nil
}

func parseMode(s string) (negotiate.MetadataMode, error) {
	switch s {
	case "none":
		return negotiate.NoMetadata, nil
	case "hash":
		return negotiate.HashMetadata, nil
	case "full":
		return negotiate.FullMetadata, nil
	default:
		return 0, errors.Errorf("unknown mode %q (want none, hash, or full)", s)
	}
}

func parseGenerics(s string) (negotiate.GenericsMode, error) {
	switch s {
	case "normal":
		return negotiate.NormalGenerics, nil
	case "all":
		return negotiate.AllGenerics, nil
	default:
		return 0, errors.Errorf("unknown generics mode %q (want normal or all)", s)
	}
}

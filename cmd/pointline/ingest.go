// Copyright (c) 2025 Neomantra Corp

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/ingest"
	"github.com/neomantra/pointline/internal/bronzeio"
	"github.com/neomantra/pointline/storage"
	"github.com/neomantra/pointline/vendors/quant360"
	"github.com/neomantra/pointline/vendors/tardis"
)

///////////////////////////////////////////////////////////////////////////////

var (
	ingestVendor     string
	ingestDataType   string
	ingestBronzeFile string
	ingestExchange   string
	ingestSymbol     string
	ingestForce      bool
	ingestDryRun     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingests a single bronze file through the v2 pipeline (§4.E)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root := requireSilverRoot()

		meta, err := bronzeFileMetadata(ingestBronzeFile, ingestVendor, ingestDataType)
		requireNoError(err)

		parser, err := buildParser(meta, ingestExchange, ingestSymbol)
		requireNoError(err)

		manifest, err := storage.NewManifestStore(root)
		requireNoError(err)
		events := storage.NewEventStore(root)
		quarantine := storage.NewQuarantineStore(events)

		dims, err := storage.NewDimensionStore(root)
		requireNoError(err)
		dimSymbol, _, err := dims.Load()
		requireNoError(err)
		if dimSymbol.IsEmpty() {
			fmt.Fprintln(os.Stderr, "warning: dim_symbol is empty — PIT coverage will quarantine every row")
		}

		pipeline := &ingest.Pipeline{
			Parser:     parser,
			Manifest:   manifest,
			Writer:     events,
			Quarantine: quarantine,
			DimSymbol:  dimSymbol,
			Force:      ingestForce,
			DryRun:     ingestDryRun,
		}

		result := pipeline.IngestFile(meta)
		printJSON(result)
	},
}

// bronzeFileMetadata stats and hashes the bronze file to build its
// BronzeFileMetadata identity before building a Parser.
func bronzeFileMetadata(path, vendor, dataType string) (pointline.BronzeFileMetadata, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return pointline.BronzeFileMetadata{}, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return pointline.BronzeFileMetadata{}, err
	}
	sha, err := fileSHA256(absPath)
	if err != nil {
		return pointline.BronzeFileMetadata{}, err
	}
	return pointline.BronzeFileMetadata{
		Vendor:         vendor,
		DataType:       dataType,
		BronzeFilePath: absPath,
		FileSizeBytes:  uint64(info.Size()),
		LastModifiedTS: info.ModTime().UnixMicro(),
		SHA256:         sha,
	}, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// buildParser builds an ingest.Parser that reads and casts meta's bronze
// file exactly once per IngestFile call, dispatching on vendor.
func buildParser(meta pointline.BronzeFileMetadata, exchange, symbol string) (ingest.Parser, error) {
	switch meta.Vendor {
	case "tardis":
		parse, err := tardis.GetParser(meta.DataType)
		if err != nil {
			return nil, err
		}
		return func(meta pointline.BronzeFileMetadata) (*pointline.Frame, error) {
			raw, err := readBronzeCSV(meta.BronzeFilePath)
			if err != nil {
				return nil, err
			}
			if raw.IsEmpty() {
				return raw, nil
			}
			return parse(raw)
		}, nil

	case "quant360":
		if exchange == "" || symbol == "" {
			return nil, fmt.Errorf("--exchange and --symbol are required for vendor quant360")
		}
		parse, err := quant360.GetParser(meta.DataType)
		if err != nil {
			return nil, err
		}
		return func(meta pointline.BronzeFileMetadata) (*pointline.Frame, error) {
			raw, err := readBronzeCSV(meta.BronzeFilePath)
			if err != nil {
				return nil, err
			}
			if raw.IsEmpty() {
				return raw, nil
			}
			return parse(raw, exchange, symbol)
		}, nil

	default:
		return nil, fmt.Errorf("unsupported vendor %q; supported: tardis, quant360", meta.Vendor)
	}
}

func readBronzeCSV(path string) (*pointline.Frame, error) {
	reader, closeFn, err := bronzeio.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return bronzeio.ReadCSVFrame(reader)
}

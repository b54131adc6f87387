// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Command icctool inspects ICC profiles and runs sample colours
// through compiled transform pipelines.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"go.uber.org/zap"

	"github.com/colorworks/iccflow"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "icctool: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var cmdErr error
	switch os.Args[1] {
	case "dump":
		cmdErr = runDump(logger, os.Args[2:])
	case "convert":
		cmdErr = runConvert(logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		logger.Error("command failed", zap.Error(cmdErr))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: icctool dump [-v] file.icc...")
	fmt.Fprintln(os.Stderr, "       icctool convert src.icc dst.icc intent r g b")
}

func runDump(logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	verbose := fs.Bool("v", false, "verbose output")
	fs.Parse(args)

	var firstErr error
	for _, fname := range fs.Args() {
		if err := dumpFile(*verbose, fname); err != nil {
			logger.Warn("failed to dump profile", zap.String("file", fname), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func dumpFile(verbose bool, fname string) error {
	body, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	raw, err := icc.DecodeRaw(body)
	if err != nil {
		return err
	}

	if !verbose {
		fmt.Printf("%-8s %-25s %6d bytes  %s\n", raw.Version, raw.Class, len(body), fname)
		return nil
	}

	fmt.Printf("Profile: %s\n", fname)
	if raw.PreferredCMMType != 0 {
		fmt.Printf("  PreferredCMMType: %s\n", tag(raw.PreferredCMMType))
	}
	fmt.Printf("  Version: %s\n", raw.Version)
	fmt.Printf("  Class: %s\n", raw.Class)
	fmt.Printf("  ColorSpace: %s\n", tag(uint32(raw.ColorSpace)))
	fmt.Printf("  PCS: %s\n", raw.PCSName())
	fmt.Printf("  CreationDate: %s\n", raw.CreationDate)
	fmt.Printf("  RenderingIntent: %s\n", raw.RenderingIntent)
	if raw.CheckSum != icc.CheckSumMissing {
		fmt.Printf("  CheckSum: %s\n", raw.CheckSum)
	}
	fmt.Println()

	tags := maps.Keys(raw.TagData)
	slices.Sort(tags)
	for _, t := range tags {
		data := raw.TagData[t]
		if t == icc.Copyright {
			fmt.Printf("  %s: (%d bytes)\n", t, len(data))
			cprt, err := raw.Copyright()
			if err == nil {
				for _, lu := range cprt {
					fmt.Printf("    [%s_%s] %s\n", lu.Language, lu.Country, lu.Value)
				}
			}
			continue
		}
		fmt.Printf("  %s (%d bytes)\n", t, len(data))
	}

	p, err := icc.Load(body)
	if err != nil {
		fmt.Printf("  classification failed: %v\n", err)
		return nil
	}
	fmt.Printf("  Kind: %s\n", p.Kind)
	fmt.Println()
	return nil
}

func tag(x uint32) string {
	a := fmt.Sprintf("%08X", x)
	bb := []byte{byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
	isASCII := true
	for _, c := range bb {
		if c < 0x20 || c > 0x7E {
			isASCII = false
			break
		}
	}
	if isASCII {
		return fmt.Sprintf("%s %q", a, bb)
	}
	return a
}

// runConvert loads two profiles, compiles a pipeline between them
// under the given intent, and prints the device colour an input RGB
// triplet maps to. It is a thin demonstration of [icc.Compile] and
// [icc.Pipeline.EvalFloat], not a general-purpose conversion tool.
func runConvert(logger *zap.Logger, args []string) error {
	if len(args) != 6 {
		return fmt.Errorf("convert needs src dst intent r g b")
	}

	src, err := loadNamed(args[0])
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	dst, err := loadNamed(args[1])
	if err != nil {
		return fmt.Errorf("loading destination: %w", err)
	}

	intent, err := parseIntent(args[2])
	if err != nil {
		return err
	}

	rgb := make([]float64, 3)
	for i, s := range args[3:6] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing channel %d: %w", i, err)
		}
		rgb[i] = v
	}

	pl, err := icc.Compile(src, icc.Step{Profile: dst, Intent: intent})
	if err != nil {
		return fmt.Errorf("compiling pipeline: %w", err)
	}

	out, err := pl.EvalFloat(rgb)
	if err != nil {
		return fmt.Errorf("evaluating pipeline: %w", err)
	}

	logger.Info("converted pixel", zap.Float64s("input", rgb), zap.Float64s("output", out))
	fmt.Println(out)
	return nil
}

func loadNamed(name string) (*icc.Profile, error) {
	if strings.HasPrefix(name, "*") {
		return buildNamedVirtual(name[1:])
	}
	body, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return icc.Load(body)
}

func buildNamedVirtual(name string) (*icc.Profile, error) {
	switch strings.ToLower(name) {
	case "srgb":
		return icc.BuildVirtual(icc.SRGB)
	case "adobergb", "adobergb1998":
		return icc.BuildVirtual(icc.AdobeRGB1998)
	case "applergb":
		return icc.BuildVirtual(icc.AppleRGB)
	case "colormatchrgb":
		return icc.BuildVirtual(icc.ColorMatchRGB)
	case "prophotorgb":
		return icc.BuildVirtual(icc.ProPhotoRGB)
	case "labd50":
		return icc.BuildVirtual(icc.LabD50)
	case "labd65":
		return icc.BuildVirtual(icc.LabD65)
	default:
		return nil, fmt.Errorf("unknown virtual space %q", name)
	}
}

func parseIntent(s string) (icc.RenderingIntent, error) {
	switch strings.ToLower(s) {
	case "0", "perceptual":
		return icc.Perceptual, nil
	case "1", "relative":
		return icc.RelativeColorimetric, nil
	case "2", "saturation":
		return icc.Saturation, nil
	case "3", "absolute":
		return icc.AbsoluteColorimetric, nil
	default:
		return 0, fmt.Errorf("unknown rendering intent %q", s)
	}
}

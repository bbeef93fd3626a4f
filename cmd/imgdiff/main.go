// Command imgdiff compares two images and writes the classified
// difference overlay as a PNG.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"image-compare/internal/diff"
	"image-compare/internal/surface"
)

func main() {
	threshold := flag.Float64("threshold", 0.1, "Perceptual sensitivity in [0,1]; 0 flags any deviation")
	output := flag.String("o", "", "Write the difference overlay PNG to this path")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Println("Usage: imgdiff [-threshold 0.1] [-o overlay.png] <image-a> <image-b>")
		os.Exit(1)
	}

	a, err := surface.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	b, err := surface.Load(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", flag.Arg(1), err)
		os.Exit(1)
	}

	// Mismatched inputs are compared on their common bounding raster.
	size := a.Size().Union(b.Size())
	w, h := int(size.Width), int(size.Height)
	a = a.Resample(w, h)
	b = b.Resample(w, h)

	res, err := diff.Compare(a, b, *threshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Comparison failed: %v\n", err)
		os.Exit(1)
	}

	stats := diff.Summarize(res)
	fmt.Printf("Compared %dx%d pixels at threshold %.2f\n", w, h, *threshold)
	fmt.Printf("  Different:    %8d (%.2f%%)\n", stats.DifferentPixels, stats.DiffPercentage)
	fmt.Printf("  Anti-aliased: %8d\n", stats.AntiAliasedPixels)
	fmt.Printf("  Unchanged:    %8d\n", stats.TotalPixels-stats.DifferentPixels-stats.AntiAliasedPixels)

	if *output != "" {
		overlay := diff.RenderOverlay(a, res)
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		if err := png.Encode(f, overlay); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode overlay: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Overlay written to %s\n", *output)
	}

	// Non-zero exit when images differ, for scripting.
	if stats.DifferentPixels > 0 {
		os.Exit(2)
	}
}

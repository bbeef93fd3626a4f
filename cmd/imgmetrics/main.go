// Command imgmetrics scores a set of images against a ground truth image
// and prints PSNR and SSIM per image as the computation progresses.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"image-compare/internal/metrics"
	"image-compare/internal/surface"
)

func main() {
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Println("Usage: imgmetrics <image>... <ground-truth>")
		fmt.Println("The last argument is the reference the others are scored against.")
		os.Exit(1)
	}

	entries := make([]metrics.Entry, 0, flag.NArg())
	for _, path := range flag.Args() {
		s, err := surface.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", path, err)
			os.Exit(1)
		}
		entries = append(entries, metrics.Entry{Path: path, Surface: s})
	}

	fmt.Printf("Ground truth: %s\n\n", entries[len(entries)-1].Path)
	fmt.Printf("%-30s %12s %10s %10s\n", "Image", "PSNR (dB)", "SSIM", "LPIPS")

	sched := metrics.NewScheduler(&metrics.OpenCVKernel{})
	sched.Submit(entries)

	failed := 0
	for ev := range sched.Events() {
		if ev.Done {
			break
		}
		if ev.Row.Err != nil {
			failed++
			fmt.Printf("%-30s %12s\n", filepath.Base(ev.Row.Path), "error")
			fmt.Fprintf(os.Stderr, "  %s: %v\n", ev.Row.Path, ev.Row.Err)
			continue
		}
		fmt.Printf("%-30s %12s %10s %10s\n",
			filepath.Base(ev.Row.Path),
			ev.Row.Scores.PSNR, ev.Row.Scores.SSIM, ev.Row.Scores.LPIPS)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

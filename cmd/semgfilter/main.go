// Command semgfilter removes cardiac artifacts from respiratory sEMG
// recordings.
//
// Usage:
//
//	semgfilter [flags] [input-file]
//
// The input holds one sample per line, channels separated by commas or
// whitespace. Without a file argument it reads from stdin. Each output
// line carries the denoised values, followed by the envelope values
// when -envelopes is set.
//
// Examples:
//
//	semgfilter recording.csv
//	semgfilter -channels 4 -init 5 recording.csv
//	semgfilter -channels 2 -envelopes < recording.csv > clean.csv
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/handzsujt/semg-online-ecg-removal/coeffs"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/envelope"
	"github.com/handzsujt/semg-online-ecg-removal/semg"
)

func main() {
	channels := flag.Int("channels", 1, "number of input channels")
	delay := flag.Int("delay", 300, "R-peak detection delay in samples")
	initSeconds := flag.Float64("init", 5, "reference-channel election window in seconds (0 skips it)")
	envWindow := flag.Int("window", 256, "envelope window length in samples")
	centered := flag.Bool("centered", false, "use a centered envelope window instead of a causal one")
	envelopes := flag.Bool("envelopes", false, "append envelope columns to the output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: semgfilter [flags] [input-file]\n\n")
		fmt.Fprintf(os.Stderr, "Removes cardiac artifacts from respiratory sEMG recordings sampled at 1024 Hz.\n")
		fmt.Fprintf(os.Stderr, "Reads one sample per line (channels comma or whitespace separated), writes the\n")
		fmt.Fprintf(os.Stderr, "denoised stream to stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  semgfilter recording.csv\n")
		fmt.Fprintf(os.Stderr, "  semgfilter -channels 2 -envelopes < recording.csv > clean.csv\n")
	}
	flag.Parse()

	in := os.Stdin
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	if flag.NArg() == 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	mode := envelope.ModeCausal
	if *centered {
		mode = envelope.ModeCentered
	}
	pipeline, err := semg.New(
		coeffs.BaselineHighpass1024(),
		coeffs.QRSBandpass1024(),
		coeffs.Daubechies2(),
		semg.WithChannels(*channels),
		semg.WithDetectionDelay(*delay),
		semg.WithInitDuration(*initSeconds),
		semg.WithEnvelopeWindow(*envWindow),
		semg.WithEnvelopeMode(mode),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(pipeline, in, os.Stdout, *envelopes); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(pipeline *semg.Pipeline, in io.Reader, out io.Writer, withEnvelopes bool) error {
	n := pipeline.Channels()
	frame := make([]float64, n)
	denoised := make([]float64, n)
	env := make([]float64, n)

	w := bufio.NewWriter(out)
	defer w.Flush()

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := parseFrame(text, frame); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := pipeline.ProcessSample(denoised, env, frame); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := writeFrame(w, denoised, env, withEnvelopes); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseFrame(text string, frame []float64) error {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != len(frame) {
		return fmt.Errorf("value count must match channel count %d: %d", len(frame), len(fields))
	}
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
		frame[i] = v
	}
	return nil
}

func writeFrame(w io.Writer, denoised, env []float64, withEnvelopes bool) error {
	for i, v := range denoised {
		if i > 0 {
			if _, err := fmt.Fprint(w, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%g", v); err != nil {
			return err
		}
	}
	if withEnvelopes {
		for _, v := range env {
			if _, err := fmt.Fprintf(w, ",%g", v); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

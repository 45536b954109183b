package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"holoscope/internal/frameio"
	"holoscope/internal/models"
	"holoscope/pkg/config"
	"holoscope/pkg/contrast"
	"holoscope/pkg/measurement"
	"holoscope/pkg/reconstruction"
	"holoscope/pkg/visualization"
)

func main() {
	// Parse command line arguments
	samplePaths := flag.String("sample", "", "Sample exposure, or comma-separated exposures to average")
	referencePaths := flag.String("reference", "", "Reference (background) exposure, or comma-separated exposures to average")
	configPath := flag.String("config", "holoscope.yaml", "Configuration file")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	method := flag.String("method", "", "Propagation method: fresnel or angular_spectrum")
	distance := flag.Float64("distance", 0, "Reconstruction distance in cm")
	source := flag.String("source", "", "Segmented field: phase, amplitude or intensity")
	roi := flag.String("roi", "", "Region of interest x0,y0,x1,y1 in pixels")
	scaleLine := flag.String("scale-line", "", "Reference line x1,y1,x2,y2 in pixels for calibration")
	known := flag.Float64("known", 0, "Known length of the reference line in µm")
	numCores := flag.Int("cores", 0, "Number of hologram pairs processed at once")
	batch := flag.Bool("batch", false, "Reconstruct each sample with the matching reference instead of averaging")
	saveImages := flag.Bool("save", false, "Save contrast, amplitude, phase and mask images")
	outputDir := flag.String("output", "", "Directory for saved images")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *samplePaths == "" || *referencePaths == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "method":
			cfg.Processing.Method = *method
		case "distance":
			cfg.Optics.DistanceCm = *distance
		case "source":
			cfg.Segmentation.Source = *source
		case "known":
			cfg.Calibration.KnownDistanceUm = *known
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "save":
			cfg.Output.SaveIntermediaryResults = *saveImages
		case "output":
			cfg.Output.IntermediaryDir = *outputDir
		}
	})

	params, err := reconstruction.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *roi != "" {
		r, err := parseRect(*roi)
		if err != nil {
			log.Fatalf("Invalid -roi: %v", err)
		}
		params.ROI = &r
		length, width := measurement.Extents(r)
		fmt.Printf("ROI: %v (length %d px, width %d px)\n", r, length, width)
	}

	calibrator := &measurement.Calibrator{}
	var lineA, lineB models.Point
	if *scaleLine != "" {
		if lineA, lineB, err = parseLine(*scaleLine); err != nil {
			log.Fatalf("Invalid -scale-line: %v", err)
		}
		line := func() (a, b models.Point, err error) {
			return lineA, lineB, nil
		}
		scale, err := calibrator.CalibrateFrom(line, cfg.Calibration.KnownDistance())
		if err != nil {
			log.Fatalf("Calibration failed: %v", err)
		}
		params.Scale = calibrator.Scale()
		fmt.Printf("Calibration: %.4f µm/pixel\n", scale.UnitsPerPixel/config.Micrometer)
	}

	samples, err := frameio.LoadAll(splitPaths(*samplePaths))
	if err != nil {
		log.Fatalf("Failed to load sample exposures: %v", err)
	}
	references, err := frameio.LoadAll(splitPaths(*referencePaths))
	if err != nil {
		log.Fatalf("Failed to load reference exposures: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("IN-LINE DIGITAL HOLOGRAPHY RECONSTRUCTION")
	fmt.Println("================================")
	fmt.Printf("Method: %v, distance: %.3f cm, wavelength: %.1f nm, pixel pitch: %.2f µm\n",
		params.Method, cfg.Optics.DistanceCm, cfg.Optics.WavelengthNm, cfg.Optics.PixelPitchUm)

	reconstructor := reconstruction.NewReconstructor(params)

	startTime := time.Now()
	var results []*reconstruction.Result
	if len(samples) == 1 && len(references) == 1 {
		res, err := reconstructor.Process(samples[0], references[0])
		if err != nil {
			log.Fatalf("Reconstruction failed: %v", err)
		}
		results = append(results, res)
	} else if *batch {
		if len(samples) != len(references) {
			log.Fatalf("Batch mode needs as many references as samples, got %d and %d", len(references), len(samples))
		}
		pairs := make([]reconstruction.Pair, len(samples))
		for i := range samples {
			pairs[i] = reconstruction.Pair{Sample: samples[i], Reference: references[i]}
		}
		if results, err = reconstructor.ProcessBatch(pairs); err != nil {
			log.Fatalf("Reconstruction failed: %v", err)
		}
	} else {
		res, err := reconstructor.ProcessMean(samples, references)
		if err != nil {
			log.Fatalf("Reconstruction failed: %v", err)
		}
		results = append(results, res)
	}
	fmt.Printf("\nReconstruction completed in %.2f seconds\n", time.Since(startTime).Seconds())

	if cfg.Output.SaveIntermediaryResults {
		saveDisplayContrast(cfg.Output.IntermediaryDir, samples[0], references[0])
	}

	for i, res := range results {
		report(i, res)
		if cfg.Output.SaveIntermediaryResults {
			dir := filepath.Join(cfg.Output.IntermediaryDir, fmt.Sprintf("%03d", i))
			saveResult(dir, res)
			fmt.Printf("Images saved to: %s\n", dir)
		}
	}

	if params.Scale != nil {
		if length, err := calibrator.Length(lineA.Dist(lineB)); err == nil {
			fmt.Printf("Reference line length check: %.3f µm\n", length/config.Micrometer)
		}
	}
}

func report(index int, res *reconstruction.Result) {
	fmt.Printf("\nResult %d: threshold %.4f, %d particles\n", index, res.Threshold, len(res.Particles))
	if len(res.Measurements) > 0 {
		fmt.Printf("%6s %8s %10s %10s %12s %12s %12s\n", "label", "area_px", "x", "y", "area_um2", "diam_um", "major_um")
		for _, m := range res.Measurements {
			p := m.Particle
			fmt.Printf("%6d %8d %10.2f %10.2f %12.3f %12.3f %12.3f\n",
				p.Label, p.Area, p.Centroid.X, p.Centroid.Y,
				m.Area/(config.Micrometer*config.Micrometer), m.EquivalentDiameter/config.Micrometer, m.MajorAxis/config.Micrometer)
		}
		return
	}
	fmt.Printf("%6s %8s %10s %10s %10s %10s\n", "label", "area_px", "x", "y", "major_px", "minor_px")
	for _, p := range res.Particles {
		fmt.Printf("%6d %8d %10.2f %10.2f %10.2f %10.2f\n",
			p.Label, p.Area, p.Centroid.X, p.Centroid.Y, p.MajorAxis, p.MinorAxis)
	}
}

// saveDisplayContrast writes the 8-bit clipped contrast of the first raw pair
func saveDisplayContrast(dir string, sample, reference *models.Frame) {
	display, err := contrast.Display(sample, reference)
	if err != nil {
		log.Printf("Warning: Failed to compute display contrast: %v", err)
		return
	}
	img, err := visualization.ClippedImage(display)
	if err != nil {
		log.Printf("Warning: Failed to render display contrast: %v", err)
		return
	}
	if err := frameio.SavePNG(filepath.Join(dir, "display_contrast.png"), img); err != nil {
		log.Printf("Warning: Failed to save display contrast: %v", err)
	}
}

func saveResult(dir string, res *reconstruction.Result) {
	fields := []struct {
		name  string
		field *models.Field
	}{
		{"01_contrast.png", res.Contrast},
		{"02_resampled.png", res.Resampled},
		{"03_amplitude.png", res.Amplitude},
		{"04_phase.png", res.Phase},
		{"05_intensity.png", res.Intensity},
	}
	for _, f := range fields {
		if f.field == nil {
			continue
		}
		img, err := visualization.FieldImage(f.field)
		if err != nil {
			log.Printf("Warning: Failed to render %s: %v", f.name, err)
			continue
		}
		if err := frameio.SavePNG(filepath.Join(dir, f.name), img); err != nil {
			log.Printf("Warning: Failed to save %s: %v", f.name, err)
		}
	}

	mask, err := visualization.MaskImage(res.Mask)
	if err != nil {
		log.Printf("Warning: Failed to render mask: %v", err)
		return
	}
	if err := frameio.SavePNG(filepath.Join(dir, "06_mask.png"), mask); err != nil {
		log.Printf("Warning: Failed to save mask: %v", err)
	}
	annotated := visualization.Annotate(mask, res.Particles)
	if err := frameio.SavePNG(filepath.Join(dir, "07_particles.png"), annotated); err != nil {
		log.Printf("Warning: Failed to save particle overlay: %v", err)
	}
}

func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated integers, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseRect(s string) (image.Rectangle, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}

func parseLine(s string) (a, b models.Point, err error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return a, b, err
	}
	a = models.Point{X: float64(v[0]), Y: float64(v[1])}
	b = models.Point{X: float64(v[2]), Y: float64(v[3])}
	return a, b, nil
}

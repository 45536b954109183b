// Package reconstruction ties the hologram processing stages into a single
// parametrized pipeline: contrast formation, resampling, bias removal,
// propagation, field decomposition, segmentation and particle analysis.
//
// Every stage failure is reported as a *models.StageError naming the stage,
// wrapping the underlying sentinel error.
package reconstruction

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"sync"

	"holoscope/internal/models"
	"holoscope/pkg/config"
	"holoscope/pkg/contrast"
	"holoscope/pkg/field"
	"holoscope/pkg/interpolation"
	"holoscope/pkg/measurement"
	"holoscope/pkg/propagation"
	"holoscope/pkg/segmentation"
)

// Source selects which view of the reconstructed field is segmented
type Source int

const (
	Phase Source = iota
	Amplitude
	Intensity
)

func (s Source) String() string {
	switch s {
	case Phase:
		return "phase"
	case Amplitude:
		return "amplitude"
	case Intensity:
		return "intensity"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// ParseSource maps a configuration name to a Source
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "phase":
		return Phase, nil
	case "amplitude":
		return Amplitude, nil
	case "intensity":
		return Intensity, nil
	}
	return 0, fmt.Errorf("unknown segmentation source %q", name)
}

// Params holds the reconstruction parameters.
type Params struct {
	// Optics are the propagation parameters in meters
	Optics propagation.Params

	// Method selects the propagation algorithm
	Method propagation.Method

	// CropSize crops both frames to the top-left CropSize x CropSize square.
	// Zero disables it.
	CropSize int

	// CropSquare crops both frames to their centered square when CropSize is zero
	CropSquare bool

	// Resolution resamples the contrast onto a Resolution x Resolution grid
	// spanning the same extent. Zero keeps the native sampling.
	Resolution int

	// TrimmedMean subtracts the trimmed mean of the contrast before propagation
	TrimmedMean bool

	// TrimFraction is the proportion cut from each end for the trimmed mean
	TrimFraction float64

	// Source is the field view thresholded into the particle mask
	Source Source

	// Clean applies morphological closing then opening to the mask
	Clean bool

	// ROI restricts particle analysis. Nil analyzes the whole mask.
	ROI *image.Rectangle

	// Scale converts particle geometry to physical units when set
	Scale *measurement.Scale

	// NumCores bounds how many pairs ProcessBatch reconstructs at once
	NumCores int

	// Verbose enables step logging to Output
	Verbose bool

	// Output receives step logging. Nil means os.Stdout.
	Output io.Writer
}

// FromConfig builds reconstruction parameters from a loaded configuration.
func FromConfig(cfg *config.Config) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	method, err := propagation.ParseMethod(cfg.Processing.Method)
	if err != nil {
		return nil, err
	}
	source, err := ParseSource(cfg.Segmentation.Source)
	if err != nil {
		return nil, err
	}
	return &Params{
		Optics:       cfg.Optics.Params(),
		Method:       method,
		CropSize:     cfg.Processing.CropSize,
		CropSquare:   cfg.Processing.CropSquare,
		Resolution:   cfg.Processing.Resolution,
		TrimmedMean:  cfg.Denoise.TrimmedMean,
		TrimFraction: cfg.Denoise.TrimFraction,
		Source:       source,
		Clean:        cfg.Segmentation.Clean,
		NumCores:     cfg.Processing.NumCores,
		Verbose:      cfg.Output.Verbose,
	}, nil
}

// Result holds every intermediate product of a reconstruction
type Result struct {
	// Contrast is reference - sample after cropping
	Contrast *models.ContrastField

	// Resampled is the contrast on the propagation grid
	Resampled *models.Field

	// Bias is the trimmed mean removed before propagation
	Bias float64

	// Field is the propagated complex field
	Field *models.ComplexField

	Amplitude *models.Field
	Phase     *models.Field

	// Intensity is only computed when it is the segmentation source
	Intensity *models.Field

	// Threshold is the Otsu threshold applied to the segmentation source
	Threshold float64

	// Mask is the binarized and optionally cleaned segmentation
	Mask *models.Mask

	Particles []models.Particle

	// Measurements are only filled when a calibration scale is set
	Measurements []measurement.Measurement
}

// Reconstructor runs the hologram reconstruction pipeline. It keeps no state
// between calls, so one instance may process several pairs concurrently.
// Log lines from concurrent calls are serialized but may interleave.
type Reconstructor struct {
	params *Params

	mu  sync.Mutex // guards out
	out io.Writer
}

// NewReconstructor creates a new reconstructor instance with the provided parameters.
func NewReconstructor(params *Params) *Reconstructor {
	out := params.Output
	if out == nil {
		out = os.Stdout
	}
	return &Reconstructor{params: params, out: out}
}

func (r *Reconstructor) logf(format string, args ...interface{}) {
	if !r.params.Verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// Process runs the complete reconstruction pipeline on one sample and
// reference exposure.
//
// Parameters:
//   - sample: exposure with the particles in the beam
//   - reference: background exposure of the same size
//
// Returns:
//   - Every intermediate product of the pipeline, or a *models.StageError
//     naming the stage that failed
func (r *Reconstructor) Process(sample, reference *models.Frame) (*Result, error) {
	p := r.params
	res := &Result{}

	// Step 1: Validate and crop the exposures
	r.logf("Step 1: Validating frames...\n")
	sample, reference, err := contrast.Validate(sample, reference)
	if err != nil {
		return nil, models.AtStage(models.StageValidate, err)
	}
	if sample, reference, err = r.crop(sample, reference); err != nil {
		return nil, models.AtStage(models.StageValidate, err)
	}
	r.logf("Frames are %dx%d\n", sample.Width, sample.Height)

	// Step 2: Form the contrast image
	r.logf("Step 2: Computing contrast...\n")
	if res.Contrast, err = contrast.Compute(sample, reference); err != nil {
		return nil, models.AtStage(models.StageContrast, err)
	}

	// Step 3: Resample onto the propagation grid
	res.Resampled = res.Contrast
	if p.Resolution > 0 {
		r.logf("Step 3: Resampling to %dx%d...\n", p.Resolution, p.Resolution)
		if res.Resampled, err = interpolation.ResampleTo(res.Contrast, p.Resolution, p.Resolution); err != nil {
			return nil, models.AtStage(models.StageResample, err)
		}
	}

	// Step 4: Remove the DC bias
	input := res.Resampled
	if p.TrimmedMean {
		r.logf("Step 4: Removing trimmed-mean bias (fraction %.2f)...\n", p.TrimFraction)
		if input, res.Bias, err = propagation.RemoveBias(res.Resampled, p.TrimFraction); err != nil {
			return nil, models.AtStage(models.StageDenoise, err)
		}
		r.logf("Bias: %g\n", res.Bias)
	}

	// Step 5: Propagate to the reconstruction plane
	r.logf("Step 5: Propagating %g m with %v...\n", p.Optics.Distance, p.Method)
	hologram, err := propagation.Promote(input)
	if err != nil {
		return nil, models.AtStage(models.StagePropagate, err)
	}
	if res.Field, err = propagation.Propagate(hologram, p.Optics, p.Method); err != nil {
		return nil, models.AtStage(models.StagePropagate, err)
	}

	// Step 6: Extract amplitude and phase
	r.logf("Step 6: Decomposing field...\n")
	if res.Amplitude, res.Phase, err = field.Decompose(res.Field); err != nil {
		return nil, models.AtStage(models.StageDecompose, err)
	}
	if p.Source == Intensity {
		if res.Intensity, err = field.Intensity(res.Field); err != nil {
			return nil, models.AtStage(models.StageDecompose, err)
		}
	}

	// Step 7: Threshold the selected view
	target := r.source(res)
	r.logf("Step 7: Binarizing %v...\n", p.Source)
	if field.AllNonFinite(target) {
		return nil, models.AtStage(models.StageBinarize,
			fmt.Errorf("%v field has no finite samples: %w", p.Source, models.ErrInvalidField))
	}
	if n := field.CountNonFinite(target); n > 0 {
		r.logf("Warning: %d non-finite samples excluded from threshold\n", n)
	}
	if res.Mask, res.Threshold, err = segmentation.Binarize(target); err != nil {
		return nil, models.AtStage(models.StageBinarize, err)
	}
	r.logf("Otsu threshold: %g\n", res.Threshold)

	// Step 8: Morphological cleanup
	if p.Clean {
		r.logf("Step 8: Cleaning mask...\n")
		if res.Mask, err = segmentation.Clean(res.Mask); err != nil {
			return nil, models.AtStage(models.StageClean, err)
		}
	}

	// Step 9: Label and measure particles
	r.logf("Step 9: Analyzing particles...\n")
	if res.Particles, err = measurement.AnalyzeParticles(res.Mask, p.ROI); err != nil {
		return nil, models.AtStage(models.StageAnalyze, err)
	}
	if p.Scale != nil {
		if res.Measurements, err = measurement.Measure(res.Particles, p.Scale); err != nil {
			return nil, models.AtStage(models.StageCalibration, err)
		}
	}
	r.logf("Found %d particles\n", len(res.Particles))

	return res, nil
}

// ProcessMean averages several sample and reference exposures pixelwise and
// reconstructs the averaged pair.
func (r *Reconstructor) ProcessMean(samples, references []*models.Frame) (*Result, error) {
	sample, err := contrast.Mean(samples...)
	if err != nil {
		return nil, models.AtStage(models.StageValidate, fmt.Errorf("sample exposures: %w", err))
	}
	reference, err := contrast.Mean(references...)
	if err != nil {
		return nil, models.AtStage(models.StageValidate, fmt.Errorf("reference exposures: %w", err))
	}
	r.logf("Averaged %d sample and %d reference exposures\n", len(samples), len(references))
	return r.Process(sample, reference)
}

func (r *Reconstructor) crop(sample, reference *models.Frame) (*models.Frame, *models.Frame, error) {
	var err error
	switch {
	case r.params.CropSize > 0:
		rect := image.Rect(0, 0, r.params.CropSize, r.params.CropSize)
		if sample, err = contrast.Crop(sample, rect); err != nil {
			return nil, nil, err
		}
		if reference, err = contrast.Crop(reference, rect); err != nil {
			return nil, nil, err
		}
	case r.params.CropSquare:
		if sample, err = contrast.CropSquare(sample); err != nil {
			return nil, nil, err
		}
		if reference, err = contrast.CropSquare(reference); err != nil {
			return nil, nil, err
		}
	}
	return sample, reference, nil
}

func (r *Reconstructor) source(res *Result) *models.Field {
	switch r.params.Source {
	case Amplitude:
		return res.Amplitude
	case Intensity:
		return res.Intensity
	default:
		return res.Phase
	}
}

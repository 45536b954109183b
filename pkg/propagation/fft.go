package propagation

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2 performs an in-place 2D discrete Fourier transform of a row-major
// width x height grid. The forward transform uses the exp(-2πi·jk/n) kernel
// and is unnormalized; the inverse transform is scaled by 1/(width*height)
// so that fft2(fft2(x), inverse) == x.
//
// Rows are transformed first, then columns. Each pass is split across
// goroutines; a CmplxFFT holds work buffers, so every worker owns its own.
func fft2(data []complex128, width, height int, inverse bool) {
	parallelLines(height, width, func(plan *fourier.CmplxFFT, _ []complex128, y int) {
		transform(plan, data[y*width:(y+1)*width], inverse)
	})

	parallelLines(width, height, func(plan *fourier.CmplxFFT, col []complex128, x int) {
		for y := 0; y < height; y++ {
			col[y] = data[y*width+x]
		}
		transform(plan, col, inverse)
		for y := 0; y < height; y++ {
			data[y*width+x] = col[y]
		}
	})

	if inverse {
		scale := complex(1/float64(width*height), 0)
		for i := range data {
			data[i] *= scale
		}
	}
}

// transform runs a 1-D forward or unnormalized inverse FFT in place.
func transform(plan *fourier.CmplxFFT, seq []complex128, inverse bool) {
	if inverse {
		plan.Sequence(seq, seq)
		return
	}
	plan.Coefficients(seq, seq)
}

// parallelLines calls fn for every line index in [0, lines) using up to
// GOMAXPROCS workers. Each worker receives an FFT plan of the given length
// and its own scratch buffer of that length.
func parallelLines(lines, length int, fn func(plan *fourier.CmplxFFT, scratch []complex128, i int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > lines {
		workers = lines
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	next := make(chan int, lines)
	for i := 0; i < lines; i++ {
		next <- i
	}
	close(next)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plan := fourier.NewCmplxFFT(length)
			buf := make([]complex128, length)
			for i := range next {
				fn(plan, buf, i)
			}
		}()
	}
	wg.Wait()
}

// fftShift2 moves the zero-frequency sample of a row-major grid to its center,
// matching numpy.fft.fftshift on both axes.
func fftShift2(data []complex128, width, height int) []complex128 {
	out := make([]complex128, len(data))
	for y := 0; y < height; y++ {
		sy := (y + height/2) % height
		for x := 0; x < width; x++ {
			sx := (x + width/2) % width
			out[sy*width+sx] = data[y*width+x]
		}
	}
	return out
}

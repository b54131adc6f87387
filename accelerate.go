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

package icc

// DefaultAcceleratorGrid is the cubic CLUT resolution [Pipeline.BuildAccelerator]
// uses unless told otherwise.
const DefaultAcceleratorGrid = 33

// deviceLUT is a baked device-RGB-to-device-N cubic CLUT built once
// from a [Pipeline]'s stage list, letting [Pipeline.TransformArray]
// bypass per-pixel stage evaluation.
type deviceLUT struct {
	grid        int
	outChannels int
	table       []float64 // [0,1]-scaled output, gridSize^3 * outChannels entries
	geometry    clutGeometry
}

// BuildAccelerator lazily bakes pl's stage list into a cubic device
// LUT at the given grid resolution (DefaultAcceleratorGrid if grid <=
// 0) and publishes it under a one-shot barrier, so concurrent callers
// never race to build it twice. It fails if the pipeline's source
// profile does not have exactly 3 input channels.
func (pl *Pipeline) BuildAccelerator(grid int) error {
	if pl.inCount != 3 {
		return newPipelineError(PipelineErrorNotAProfile,
			"accelerator requires a 3-channel source profile, got %d channels", pl.inCount)
	}
	if grid <= 0 {
		grid = DefaultAcceleratorGrid
	}

	pl.acceleratorOnce.Do(func() {
		table := make([]float64, grid*grid*grid*pl.outCount)
		idx := 0
		for ri := 0; ri < grid; ri++ {
			r := float64(ri) / float64(grid-1)
			for gi := 0; gi < grid; gi++ {
				g := float64(gi) / float64(grid-1)
				for bi := 0; bi < grid; bi++ {
					b := float64(bi) / float64(grid-1)
					out, err := pl.EvalFloat([]float64{r, g, b})
					if err != nil {
						pl.acceleratorErr = err
						return
					}
					copy(table[idx:idx+pl.outCount], out)
					idx += pl.outCount
				}
			}
		}
		pl.accelerator = &deviceLUT{
			grid:        grid,
			outChannels: pl.outCount,
			table:       table,
			geometry:    uniformGeometry(3, grid, pl.outCount),
		}
	})

	return pl.acceleratorErr
}

// TransformArrayOptions controls [Pipeline.TransformArray].
type TransformArrayOptions struct {
	// HasAlpha indicates the input buffer is laid out RGBA rather than RGB.
	HasAlpha bool
	// OutputAlpha appends an alpha byte after each pixel's device channels.
	OutputAlpha bool
	// PreserveAlpha copies the source alpha through instead of writing 255.
	// Only meaningful when both HasAlpha and OutputAlpha are set.
	PreserveAlpha bool
	// Length truncates the number of pixels processed; 0 means "all of them".
	Length int
}

// TransformArray runs a flat byte buffer of RGB (or RGBA) pixels
// through the baked accelerator CLUT, writing OutputChannels (plus an
// optional alpha byte) bytes per pixel. Call [Pipeline.BuildAccelerator]
// first; TransformArray returns an error if the accelerator has not
// been built.
func (pl *Pipeline) TransformArray(src []byte, opts TransformArrayOptions) ([]byte, error) {
	if pl.accelerator == nil {
		return nil, newPipelineError(PipelineErrorNotAProfile, "accelerator has not been built")
	}

	inStride := 3
	if opts.HasAlpha {
		inStride = 4
	}
	numPixels := len(src) / inStride
	if opts.Length > 0 && opts.Length < numPixels {
		numPixels = opts.Length
	}

	outStride := pl.accelerator.outChannels
	if opts.OutputAlpha {
		outStride++
	}

	out := make([]byte, numPixels*outStride)
	lut := pl.accelerator

	for px := 0; px < numPixels; px++ {
		si := px * inStride
		r := float64(src[si]) / 255.0
		g := float64(src[si+1]) / 255.0
		b := float64(src[si+2]) / 255.0

		vals := lut.geometry.sample(lut.table, []float64{r, g, b})

		oi := px * outStride
		for i, v := range vals {
			out[oi+i] = clampByte(v * 255.0)
		}
		if opts.OutputAlpha {
			if opts.HasAlpha && opts.PreserveAlpha {
				out[oi+lut.outChannels] = src[si+3]
			} else {
				out[oi+lut.outChannels] = 255
			}
		}
	}

	return out, nil
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

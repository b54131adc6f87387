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

import "math"

// LUT is a device<->PCS colour lookup table decoded from one of the
// four on-disk CLUT tag formats an ICC profile can carry. Profile
// loading (see [Load]) stores one per rendering intent in
// [Profile.A2B] / [Profile.B2A]; the pipeline compiler calls Apply
// once per pixel for table-based ([KindRGBLut], [KindCMYK], [KindDuo])
// profiles.
type LUT interface {
	// Apply runs one colour, normalised to [0, 1] per channel, through
	// the table's processing chain.
	Apply(input []float64) []float64

	// Encode serialises the table back to its native ICC tag bytes.
	Encode() ([]byte, error)

	InputChannels() int
	OutputChannels() int
}

// DecodeLUT decodes an AToB0, AToB1, AToB2, BToA0, BToA1, or BToA2 tag
// body into a [LUT]. The legacy 8-bit ("mft1") and 16-bit ("mft2")
// formats share a fixed processing order (matrix, then curves, then
// CLUT, then curves); the v4 formats ("mAB ", "mBA ") chain curves,
// an optional matrix, and a variable-grid CLUT in either direction.
func DecodeLUT(data []byte) (LUT, error) {
	if len(data) < 8 {
		return nil, errInvalidTagData
	}

	switch string(data[0:4]) {
	case "mft1":
		return decodeLegacyTable(data, 8)
	case "mft2":
		return decodeLegacyTable(data, 16)
	case "mAB ":
		return decodeMultiStageTable(data, false)
	case "mBA ":
		return decodeMultiStageTable(data, true)
	default:
		return nil, errUnexpectedType
	}
}

// ----------------------------------------------------------------------------
// clutGeometry - shared interpolation over a rectangular multi-dimensional
// lookup table
// ----------------------------------------------------------------------------

// clutGeometry describes how a flattened CLUT's samples are laid out:
// the grid resolution along each input dimension and the stride
// (offset between adjacent samples) for each dimension, computed once
// as a cumulative product so interpolation never has to recompute it
// per pixel. A zero-value geometry (empty gridPoints) marks "no CLUT
// stage", and sample degenerates to a zero vector.
type clutGeometry struct {
	gridPoints []int
	strides    []int
	channels   int
}

// newCLUTGeometry builds the geometry for a CLUT with channels values
// per grid point and the given per-dimension resolution. strides[i]
// is the flat-array distance between neighbouring samples along
// dimension i; strides[len-1] is always channels, and each preceding
// stride is the product of the channel count with every later
// dimension's grid size.
func newCLUTGeometry(gridPoints []int, channels int) clutGeometry {
	strides := make([]int, len(gridPoints))
	stride := channels
	for i := len(gridPoints) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= gridPoints[i]
	}
	return clutGeometry{gridPoints: gridPoints, strides: strides, channels: channels}
}

func uniformGeometry(dims, points, channels int) clutGeometry {
	gridPoints := make([]int, dims)
	for i := range gridPoints {
		gridPoints[i] = points
	}
	return newCLUTGeometry(gridPoints, channels)
}

// sample looks up input (each component in [0, 1]) in clut, using
// tetrahedral interpolation for the common 3-input uniform-grid case
// and multilinear interpolation otherwise.
func (g clutGeometry) sample(clut []float64, input []float64) []float64 {
	n := len(g.gridPoints)
	if n == 0 || len(input) != n {
		return make([]float64, g.channels)
	}
	if n == 3 && g.gridPoints[0] == g.gridPoints[1] && g.gridPoints[1] == g.gridPoints[2] {
		return g.sampleTetrahedral(clut, input[0], input[1], input[2])
	}
	return g.sampleMultilinear(clut, input)
}

// sampleTetrahedral performs tetrahedral interpolation in a 3D CLUT,
// splitting the unit cube around (r, g, b) into six tetrahedra and
// interpolating over whichever one the fractional coordinates fall
// into. This is the standard ICC CLUT interpolation scheme: exact on
// the cube's diagonal and cheaper than averaging all eight corners.
func (g clutGeometry) sampleTetrahedral(clut []float64, r, gg, b float64) []float64 {
	gridSize := g.gridPoints[0]
	out := make([]float64, g.channels)
	if gridSize < 2 {
		if len(clut) >= g.channels {
			copy(out, clut[:g.channels])
		}
		return out
	}

	scale := float64(gridSize - 1)
	rPos, gPos, bPos := r*scale, gg*scale, b*scale

	ri := clampIndex(int(rPos), gridSize)
	gi := clampIndex(int(gPos), gridSize)
	bi := clampIndex(int(bPos), gridSize)

	fr := clamp(rPos-float64(ri), 0, 1)
	fg := clamp(gPos-float64(gi), 0, 1)
	fb := clamp(bPos-float64(bi), 0, 1)

	rStride, gStride, bStride := g.strides[0], g.strides[1], g.strides[2]
	base := ri*rStride + gi*gStride + bi*bStride

	c000 := base
	c001 := base + bStride
	c010 := base + gStride
	c011 := base + gStride + bStride
	c100 := base + rStride
	c101 := base + rStride + bStride
	c110 := base + rStride + gStride
	c111 := base + rStride + gStride + bStride

	switch {
	case fr > fg && fg > fb:
		for i := range out {
			out[i] = (1-fr)*clut[c000+i] + (fr-fg)*clut[c100+i] + (fg-fb)*clut[c110+i] + fb*clut[c111+i]
		}
	case fr > fg && fr > fb:
		for i := range out {
			out[i] = (1-fr)*clut[c000+i] + (fr-fb)*clut[c100+i] + (fb-fg)*clut[c101+i] + fg*clut[c111+i]
		}
	case fr > fg:
		for i := range out {
			out[i] = (1-fb)*clut[c000+i] + (fb-fr)*clut[c001+i] + (fr-fg)*clut[c101+i] + fg*clut[c111+i]
		}
	case fr > fb:
		for i := range out {
			out[i] = (1-fg)*clut[c000+i] + (fg-fr)*clut[c010+i] + (fr-fb)*clut[c110+i] + fb*clut[c111+i]
		}
	case fg > fb:
		for i := range out {
			out[i] = (1-fg)*clut[c000+i] + (fg-fb)*clut[c010+i] + (fb-fr)*clut[c011+i] + fr*clut[c111+i]
		}
	default:
		for i := range out {
			out[i] = (1-fb)*clut[c000+i] + (fb-fg)*clut[c001+i] + (fg-fr)*clut[c011+i] + fr*clut[c111+i]
		}
	}

	return out
}

// sampleMultilinear performs n-dimensional multilinear interpolation
// by blending the 2^n corners of the cell that contains input,
// weighted by each dimension's fractional offset.
func (g clutGeometry) sampleMultilinear(clut []float64, input []float64) []float64 {
	n := len(g.gridPoints)
	indices := make([]int, n)
	fracs := make([]float64, n)
	for i := range n {
		scale := float64(g.gridPoints[i] - 1)
		pos := input[i] * scale
		idx := clampIndex(int(pos), g.gridPoints[i])
		indices[i] = idx
		fracs[i] = clamp(pos-float64(idx), 0, 1)
	}

	base := 0
	for i := range n {
		base += indices[i] * g.strides[i]
	}

	out := make([]float64, g.channels)
	for corner := 0; corner < 1<<n; corner++ {
		offset := 0
		weight := 1.0
		for d := range n {
			if corner&(1<<d) != 0 {
				offset += g.strides[d]
				weight *= fracs[d]
			} else {
				weight *= 1 - fracs[d]
			}
		}
		for i := range out {
			if idx := base + offset + i; idx < len(clut) {
				out[i] += weight * clut[idx]
			}
		}
	}
	return out
}

func clampIndex(idx, gridSize int) int {
	if idx < 0 {
		return 0
	}
	if idx >= gridSize-1 {
		return max(gridSize-2, 0)
	}
	return idx
}

// ----------------------------------------------------------------------------
// legacyTable - lut8Type / lut16Type ("mft1" / "mft2")
// ----------------------------------------------------------------------------

// legacyTable implements the two pre-v4 CLUT tags. Both share a fixed
// processing order (Matrix -> InputCurves -> CLUT -> OutputCurves);
// they differ only in sample width on disk (8-bit fixed 256-entry
// curves vs. 16-bit variable-length ones), recorded in bits.
type legacyTable struct {
	bits            int // 8 or 16
	inputChannels   int
	outputChannels  int
	inputTableSize  int // curve length on disk; 256 when bits == 8
	outputTableSize int
	matrix          []float64 // 3x3, nil if identity
	inputCurves     []*Curve
	outputCurves    []*Curve
	clut            []float64 // flattened, normalised [0, 1]
	geometry        clutGeometry
}

func (l *legacyTable) InputChannels() int  { return l.inputChannels }
func (l *legacyTable) OutputChannels() int { return l.outputChannels }

func (l *legacyTable) Apply(input []float64) []float64 {
	if len(input) != l.inputChannels {
		return make([]float64, l.outputChannels)
	}

	values := make([]float64, len(input))
	copy(values, input)

	values = applyMatrix3x3(l.matrix, values)
	values = applyCurves(l.inputCurves, values)
	if l.clut != nil {
		values = l.geometry.sample(l.clut, values)
	}
	values = applyCurves(l.outputCurves, values)

	for i := range values {
		values[i] = clamp(values[i], 0, 1)
	}
	return values
}

func (l *legacyTable) Encode() ([]byte, error) {
	if l.bits == 8 {
		return l.encode8()
	}
	return l.encode16()
}

func (l *legacyTable) encode8() ([]byte, error) {
	inputTableSize := 256 * l.inputChannels
	clutSize := clutEntryCount(uniformGrid(l.inputChannels, gridResolution(l.geometry)), l.outputChannels)
	outputTableSize := 256 * l.outputChannels
	buf := make([]byte, 48+inputTableSize+clutSize+outputTableSize)
	copy(buf[0:4], "mft1")
	buf[8] = byte(l.inputChannels)
	buf[9] = byte(l.outputChannels)
	buf[10] = byte(gridResolution(l.geometry))
	writeLegacyMatrix(buf, l.matrix)

	offset := 48
	offset += writeByteCurveTable(buf[offset:], l.inputCurves, l.inputChannels, 256)
	for i, v := range l.clut {
		buf[offset+i] = byte(clamp(v, 0, 1) * 255.0)
	}
	offset += clutSize
	writeByteCurveTable(buf[offset:], l.outputCurves, l.outputChannels, 256)

	return buf, nil
}

func (l *legacyTable) encode16() ([]byte, error) {
	inTableEntries := orDefault(l.inputTableSize, 256)
	outTableEntries := orDefault(l.outputTableSize, 256)

	inBytes := inTableEntries * l.inputChannels * 2
	clutSize := clutEntryCount(uniformGrid(l.inputChannels, gridResolution(l.geometry)), l.outputChannels)
	outBytes := outTableEntries * l.outputChannels * 2
	buf := make([]byte, 52+inBytes+clutSize*2+outBytes)

	copy(buf[0:4], "mft2")
	buf[8] = byte(l.inputChannels)
	buf[9] = byte(l.outputChannels)
	buf[10] = byte(gridResolution(l.geometry))
	putUint16(buf, 48, uint16(inTableEntries))
	putUint16(buf, 50, uint16(outTableEntries))
	writeLegacyMatrix(buf, l.matrix)

	offset := 52
	offset += writeWordCurveTable(buf[offset:], l.inputCurves, l.inputChannels, inTableEntries)
	for i, v := range l.clut {
		putUint16(buf, offset+i*2, uint16(clamp(v, 0, 1)*65535.0))
	}
	offset += clutSize * 2
	writeWordCurveTable(buf[offset:], l.outputCurves, l.outputChannels, outTableEntries)

	return buf, nil
}

func writeLegacyMatrix(buf []byte, matrix []float64) {
	if matrix == nil {
		matrix = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	for i := range 9 {
		putS15Fixed16(buf, 12+i*4, matrix[i])
	}
}

func writeByteCurveTable(buf []byte, curves []*Curve, channels, entries int) int {
	for ch := range channels {
		var curve *Curve
		if ch < len(curves) {
			curve = curves[ch]
		}
		for i := range entries {
			val := float64(i) / float64(entries-1)
			if curve != nil {
				val = curve.Evaluate(val)
			}
			buf[ch*entries+i] = byte(clamp(val, 0, 1) * 255.0)
		}
	}
	return channels * entries
}

func writeWordCurveTable(buf []byte, curves []*Curve, channels, entries int) int {
	for ch := range channels {
		var curve *Curve
		if ch < len(curves) {
			curve = curves[ch]
		}
		for i := range entries {
			val := float64(i) / float64(entries-1)
			if curve != nil {
				val = curve.Evaluate(val)
			}
			putUint16(buf, (ch*entries+i)*2, uint16(clamp(val, 0, 1)*65535.0))
		}
	}
	return channels * entries * 2
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func gridResolution(g clutGeometry) int {
	if len(g.gridPoints) == 0 {
		return 0
	}
	return g.gridPoints[0]
}

func uniformGrid(dims, points int) []int {
	g := make([]int, dims)
	for i := range g {
		g[i] = points
	}
	return g
}

func decodeLegacyTable(data []byte, bits int) (*legacyTable, error) {
	headerSize := 48
	if bits == 16 {
		headerSize = 52
	}
	if len(data) < headerSize {
		return nil, errInvalidTagData
	}

	inputChannels := int(data[8])
	outputChannels := int(data[9])
	gridPoints := int(data[10])
	if inputChannels == 0 || outputChannels == 0 || inputChannels > 15 || outputChannels > 15 {
		return nil, errInvalidTagData
	}

	matrix := make([]float64, 9)
	for i := range 9 {
		matrix[i] = getS15Fixed16(data, 12+i*4)
	}
	if isIdentityMatrix3x3(matrix) {
		matrix = nil
	}

	inEntries, outEntries := 256, 256
	if bits == 16 {
		inEntries = int(getUint16(data, 48))
		outEntries = int(getUint16(data, 50))
	}

	inStart := headerSize
	inSize := inEntries * inputChannels * (bits / 8)
	if len(data) < inStart+inSize {
		return nil, errInvalidTagData
	}
	inputCurves, err := readLegacyCurves(data, inStart, inputChannels, inEntries, bits)
	if err != nil {
		return nil, err
	}

	clutSize := clutEntryCount(uniformGrid(inputChannels, gridPoints), outputChannels)
	if clutSize == 0 {
		return nil, errInvalidTagData
	}
	clutStart := inStart + inSize
	bytesPerSample := bits / 8
	if len(data) < clutStart+clutSize*bytesPerSample {
		return nil, errInvalidTagData
	}
	clut := make([]float64, clutSize)
	if bits == 8 {
		for i := range clutSize {
			clut[i] = float64(data[clutStart+i]) / 255.0
		}
	} else {
		for i := range clutSize {
			clut[i] = float64(getUint16(data, clutStart+i*2)) / 65535.0
		}
	}

	outStart := clutStart + clutSize*bytesPerSample
	outSize := outEntries * outputChannels * bytesPerSample
	if len(data) < outStart+outSize {
		return nil, errInvalidTagData
	}
	outputCurves, err := readLegacyCurves(data, outStart, outputChannels, outEntries, bits)
	if err != nil {
		return nil, err
	}

	return &legacyTable{
		bits:            bits,
		inputChannels:   inputChannels,
		outputChannels:  outputChannels,
		inputTableSize:  inEntries,
		outputTableSize: outEntries,
		matrix:          matrix,
		inputCurves:     inputCurves,
		outputCurves:    outputCurves,
		clut:            clut,
		geometry:        uniformGeometry(inputChannels, gridPoints, outputChannels),
	}, nil
}

// readLegacyCurves reads channels fixed-length tables of entries
// 8-bit or 16-bit samples starting at offset, expanding 8-bit samples
// to the 16-bit range [Curve.Table] uses (0x00 -> 0x0000, 0xFF -> 0xFFFF).
func readLegacyCurves(data []byte, offset, channels, entries, bits int) ([]*Curve, error) {
	curves := make([]*Curve, channels)
	for ch := range channels {
		table := make([]uint16, entries)
		for i := range entries {
			if bits == 8 {
				v := uint16(data[offset+ch*entries+i])
				table[i] = v<<8 | v
			} else {
				table[i] = getUint16(data, offset+(ch*entries+i)*2)
			}
		}
		curves[ch] = &Curve{Table: table}
	}
	return curves, nil
}

// ----------------------------------------------------------------------------
// multiStageTable - lutAtoBType / lutBtoAType ("mAB " / "mBA ")
// ----------------------------------------------------------------------------

// multiStageTable implements the v4 multi-stage CLUT tags. The two
// on-disk directions share every stage (curves, an optional 3x4
// matrix, and a variable-grid CLUT); they differ only in which end
// the curve pair labelled "A" sits on and the order the stages run
// in, captured here by reversed rather than by two separate types.
type multiStageTable struct {
	reversed       bool // true for "mBA ", false for "mAB "
	inputChannels  int
	outputChannels int
	aCurves        []*Curve  // mAB: input; mBA: output
	bCurves        []*Curve  // mAB: output; mBA: input
	mCurves        []*Curve  // always 3 channels, beside the matrix
	matrix         []float64 // 3x4, nil if identity or absent
	clutPrecision  int       // 1 (8-bit) or 2 (16-bit)
	clut           []float64 // flattened, normalised [0, 1]
	geometry       clutGeometry
}

func (t *multiStageTable) InputChannels() int  { return t.inputChannels }
func (t *multiStageTable) OutputChannels() int { return t.outputChannels }

// Apply runs the stage chain. mAB order is ACurves -> CLUT -> MCurves
// -> Matrix -> BCurves; mBA runs the same five stages in reverse,
// which is exactly what it means for a profile to carry both
// directions of the same multi-stage transform.
func (t *multiStageTable) Apply(input []float64) []float64 {
	if len(input) != t.inputChannels {
		return make([]float64, t.outputChannels)
	}

	values := make([]float64, len(input))
	copy(values, input)

	if t.reversed {
		values = applyCurves(t.bCurves, values)
		values = applyMatrix3x4(t.matrix, values)
		values = applyCurves(t.mCurves, values)
		if t.clut != nil {
			values = t.geometry.sample(t.clut, values)
		}
		values = applyCurves(t.aCurves, values)
	} else {
		values = applyCurves(t.aCurves, values)
		if t.clut != nil {
			values = t.geometry.sample(t.clut, values)
		}
		values = applyCurves(t.mCurves, values)
		values = applyMatrix3x4(t.matrix, values)
		values = applyCurves(t.bCurves, values)
	}

	for i := range values {
		values[i] = clamp(values[i], 0, 1)
	}
	return values
}

func (t *multiStageTable) Encode() ([]byte, error) {
	return encodeMultiStage(t.inputChannels, t.outputChannels, t.aCurves, t.geometry.gridPoints,
		t.clut, t.clutPrecision, t.mCurves, t.matrix, t.bCurves, t.reversed)
}

func decodeMultiStageTable(data []byte, reversed bool) (*multiStageTable, error) {
	if len(data) < 32 {
		return nil, errInvalidTagData
	}

	inputChannels := int(data[8])
	outputChannels := int(data[9])
	if inputChannels == 0 || outputChannels == 0 || inputChannels > 15 || outputChannels > 15 {
		return nil, errInvalidTagData
	}

	bCurveOffset := getUint32(data, 12)
	matrixOffset := getUint32(data, 16)
	mCurveOffset := getUint32(data, 20)
	clutOffset := getUint32(data, 24)
	aCurveOffset := getUint32(data, 28)

	// The "A curve" slot holds the output curves for mBA and the input
	// curves for mAB; "B" is the mirror image.
	aCurveChannels, bCurveChannels := outputChannels, inputChannels
	if !reversed {
		aCurveChannels, bCurveChannels = inputChannels, outputChannels
	}

	t := &multiStageTable{
		reversed:       reversed,
		inputChannels:  inputChannels,
		outputChannels: outputChannels,
	}

	if bCurveOffset != 0 {
		curves, err := decodeCurvesAtOffset(data, int(bCurveOffset), bCurveChannels)
		if err != nil {
			return nil, err
		}
		t.bCurves = curves
	}
	if aCurveOffset != 0 {
		curves, err := decodeCurvesAtOffset(data, int(aCurveOffset), aCurveChannels)
		if err != nil {
			return nil, err
		}
		t.aCurves = curves
	}
	if matrixOffset != 0 {
		matrix, err := decodeMatrix3x4(data, int(matrixOffset))
		if err != nil {
			return nil, err
		}
		t.matrix = matrix
	}
	if mCurveOffset != 0 {
		curves, err := decodeCurvesAtOffset(data, int(mCurveOffset), 3)
		if err != nil {
			return nil, err
		}
		t.mCurves = curves
	}
	if clutOffset != 0 {
		gridPoints, clut, precision, err := decodeCLUT(data, int(clutOffset), inputChannels, outputChannels)
		if err != nil {
			return nil, err
		}
		t.clut = clut
		t.clutPrecision = precision
		t.geometry = newCLUTGeometry(gridPoints, outputChannels)
	}

	return t, nil
}

// ----------------------------------------------------------------------------
// Shared ICC tag binary helpers
// ----------------------------------------------------------------------------

// clutEntryCount computes the total flattened length of a CLUT
// (product of every dimension's grid size, times the channel count),
// returning 0 on overflow past the 2^30-entry sanity limit.
func clutEntryCount(gridPoints []int, channels int) int {
	const maxSize = 1 << 30
	size := uint64(1)
	for _, g := range gridPoints {
		size *= uint64(g)
		if size > maxSize {
			return 0
		}
	}
	size *= uint64(channels)
	if size > maxSize {
		return 0
	}
	return int(size)
}

func isIdentityMatrix3x3(m []float64) bool {
	if len(m) != 9 {
		return false
	}
	identity := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := range 9 {
		if math.Abs(m[i]-identity[i]) > 1e-6 {
			return false
		}
	}
	return true
}

func isIdentityMatrix3x4(m []float64) bool {
	if len(m) != 12 {
		return false
	}
	identity := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}
	for i := range 12 {
		if math.Abs(m[i]-identity[i]) > 1e-6 {
			return false
		}
	}
	return true
}

func applyCurves(curves []*Curve, values []float64) []float64 {
	if curves == nil {
		return values
	}
	for i, c := range curves {
		if c != nil && i < len(values) {
			values[i] = c.Evaluate(values[i])
		}
	}
	return values
}

func applyMatrix3x3(m []float64, values []float64) []float64 {
	if m == nil || len(values) != 3 {
		return values
	}
	x, y, z := values[0], values[1], values[2]
	return []float64{
		m[0]*x + m[1]*y + m[2]*z,
		m[3]*x + m[4]*y + m[5]*z,
		m[6]*x + m[7]*y + m[8]*z,
	}
}

func applyMatrix3x4(m []float64, values []float64) []float64 {
	if m == nil || len(values) != 3 {
		return values
	}
	x, y, z := values[0], values[1], values[2]
	return []float64{
		m[0]*x + m[1]*y + m[2]*z + m[9],
		m[3]*x + m[4]*y + m[5]*z + m[10],
		m[6]*x + m[7]*y + m[8]*z + m[11],
	}
}

func decodeCurvesAtOffset(data []byte, offset int, numCurves int) ([]*Curve, error) {
	curves := make([]*Curve, numCurves)
	pos := offset
	for i := range numCurves {
		if pos+8 > len(data) {
			return nil, errInvalidTagData
		}

		typeID := string(data[pos : pos+4])
		var size int
		switch typeID {
		case "curv":
			if pos+12 > len(data) {
				return nil, errInvalidTagData
			}
			n := getUint32(data, pos+8)
			size = 12 + int(n)*2
		case "para":
			if pos+12 > len(data) {
				return nil, errInvalidTagData
			}
			funcType := int(getUint16(data, pos+8))
			numParams := []int{1, 3, 4, 5, 7}[min(funcType, 4)]
			size = 12 + numParams*4
		default:
			return nil, errUnexpectedType
		}

		size = (size + 3) &^ 3
		if pos+size > len(data) {
			return nil, errInvalidTagData
		}

		curve, err := DecodeCurve(data[pos : pos+size])
		if err != nil {
			return nil, err
		}
		curves[i] = curve
		pos += size
	}
	return curves, nil
}

func decodeMatrix3x4(data []byte, offset int) ([]float64, error) {
	if offset+48 > len(data) {
		return nil, errInvalidTagData
	}
	matrix := make([]float64, 12)
	for i := range 12 {
		matrix[i] = getS15Fixed16(data, offset+i*4)
	}
	if isIdentityMatrix3x4(matrix) {
		return nil, nil
	}
	return matrix, nil
}

// decodeCLUT reads a v4 multi-stage CLUT: one grid-size byte per
// input dimension, a precision byte (1 = 8-bit, 2 = 16-bit) at offset
// 16, and the sample data itself from offset 20. Per-channel scales
// (divide by 255 or 65535) are applied here rather than deferred to
// sampling time, so clutGeometry.sample always works against
// [0, 1]-normalised data regardless of on-disk precision.
func decodeCLUT(data []byte, offset int, inputChannels, outputChannels int) ([]int, []float64, int, error) {
	if offset+20 > len(data) {
		return nil, nil, 0, errInvalidTagData
	}

	gridPoints := make([]int, inputChannels)
	for i := range inputChannels {
		gridPoints[i] = int(data[offset+i])
		if gridPoints[i] == 0 {
			gridPoints[i] = 1
		}
	}

	precision := int(data[offset+16])
	size := clutEntryCount(gridPoints, outputChannels)
	if size == 0 {
		return nil, nil, 0, errInvalidTagData
	}

	clutDataStart := offset + 20
	var clut []float64
	switch precision {
	case 1:
		if len(data) < clutDataStart+size {
			return nil, nil, 0, errInvalidTagData
		}
		clut = make([]float64, size)
		for i := range size {
			clut[i] = float64(data[clutDataStart+i]) / 255.0
		}
	case 2:
		if len(data) < clutDataStart+size*2 {
			return nil, nil, 0, errInvalidTagData
		}
		clut = make([]float64, size)
		for i := range size {
			clut[i] = float64(getUint16(data, clutDataStart+i*2)) / 65535.0
		}
	default:
		return nil, nil, 0, errInvalidTagData
	}

	return gridPoints, clut, precision, nil
}

func encodeMultiStage(inputChannels, outputChannels int, aCurves []*Curve, gridPoints []int, clut []float64,
	clutPrecision int, mCurves []*Curve, matrix []float64, bCurves []*Curve, isBToA bool) ([]byte, error) {
	offset := uint32(32)

	var aCurveCount, bCurveCount int
	if isBToA {
		bCurveCount, aCurveCount = inputChannels, outputChannels
	} else {
		aCurveCount, bCurveCount = inputChannels, outputChannels
	}
	const mCurveCount = 3 // M curves always sit on the matrix's 3 channels

	var bCurveOffset uint32
	var bCurveData []byte
	if len(bCurves) > 0 {
		bCurveOffset = offset
		bCurveData = encodeCurves(bCurves, bCurveCount)
		offset += uint32(len(bCurveData))
	}

	var matrixOffset uint32
	if len(matrix) >= 9 {
		offset = align4(offset)
		matrixOffset = offset
		offset += 48
	}

	var mCurveOffset uint32
	var mCurveData []byte
	if len(mCurves) > 0 {
		offset = align4(offset)
		mCurveOffset = offset
		mCurveData = encodeCurves(mCurves, mCurveCount)
		offset += uint32(len(mCurveData))
	}

	var clutOffset uint32
	var clutData []byte
	if clut != nil && len(gridPoints) > 0 {
		offset = align4(offset)
		clutOffset = offset
		clutData = encodeCLUT(gridPoints, outputChannels, clut, clutPrecision)
		offset += uint32(len(clutData))
	}

	var aCurveOffset uint32
	var aCurveData []byte
	if len(aCurves) > 0 {
		offset = align4(offset)
		aCurveOffset = offset
		aCurveData = encodeCurves(aCurves, aCurveCount)
		offset += uint32(len(aCurveData))
	}

	buf := make([]byte, align4(offset))
	if isBToA {
		copy(buf[0:4], "mBA ")
	} else {
		copy(buf[0:4], "mAB ")
	}
	buf[8] = byte(inputChannels)
	buf[9] = byte(outputChannels)
	putUint32(buf, 12, bCurveOffset)
	putUint32(buf, 16, matrixOffset)
	putUint32(buf, 20, mCurveOffset)
	putUint32(buf, 24, clutOffset)
	putUint32(buf, 28, aCurveOffset)

	if bCurveOffset != 0 {
		copy(buf[bCurveOffset:], bCurveData)
	}
	if matrixOffset != 0 {
		matrix12 := make([]float64, 12)
		copy(matrix12, matrix)
		for i := range 12 {
			putS15Fixed16(buf, int(matrixOffset)+i*4, matrix12[i])
		}
	}
	if mCurveOffset != 0 {
		copy(buf[mCurveOffset:], mCurveData)
	}
	if clutOffset != 0 {
		copy(buf[clutOffset:], clutData)
	}
	if aCurveOffset != 0 {
		copy(buf[aCurveOffset:], aCurveData)
	}

	return buf, nil
}

func encodeCLUT(gridPoints []int, outputChannels int, clut []float64, precision int) []byte {
	size := clutEntryCount(gridPoints, outputChannels)
	if precision != 1 {
		precision = 2
	}

	var buf []byte
	if precision == 1 {
		buf = make([]byte, 20+size)
	} else {
		buf = make([]byte, 20+size*2)
	}

	for i, g := range gridPoints {
		if i < 16 {
			buf[i] = byte(g)
		}
	}
	buf[16] = byte(precision)

	if precision == 1 {
		for i, v := range clut {
			buf[20+i] = byte(clamp(v, 0, 1) * 255.0)
		}
	} else {
		for i, v := range clut {
			putUint16(buf, 20+i*2, uint16(clamp(v, 0, 1)*65535.0))
		}
	}

	return buf
}

func encodeCurves(curves []*Curve, count int) []byte {
	var buf []byte
	for i := range count {
		var curveData []byte
		if i < len(curves) && curves[i] != nil {
			curveData = curves[i].Encode()
		} else {
			curveData = (&Curve{Gamma: 1.0}).Encode()
		}
		for len(curveData)%4 != 0 {
			curveData = append(curveData, 0)
		}
		buf = append(buf, curveData...)
	}
	return buf
}

func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}

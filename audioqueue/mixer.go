// ABOUTME: Matrix-multiply channel remap from M to N interleaved channels
// ABOUTME: No clamping here; clamping happens only on pop mixing
package audioqueue

// RemapFrames computes, for every frame f in [0, frameCount):
//
//	out[f*N+i] = sum_{j=0..M-1} m.At(i,j) * in[f*M+j]
//
// in must hold frameCount*m.Cols samples; out must have room for
// frameCount*m.Rows samples. Frames are processed in order; within a
// frame, output channels are independent.
func RemapFrames(in []float32, frameCount int, m Matrix, out []float32) {
	srcCh, dstCh := m.Cols, m.Rows
	for f := 0; f < frameCount; f++ {
		inFrame := in[f*srcCh : f*srcCh+srcCh]
		outFrame := out[f*dstCh : f*dstCh+dstCh]
		for i := 0; i < dstCh; i++ {
			var sum float32
			row := m.gains[i*srcCh : i*srcCh+srcCh]
			for j := 0; j < srcCh; j++ {
				sum += row[j] * inFrame[j]
			}
			outFrame[i] = sum
		}
	}
}

package filter

import (
	"image"
	"math"
	"math/rand"
)

// noiseSeed fixes the PRNG used by the noise filter so that re-rendering an
// unchanged scene produces identical bytes.
const noiseSeed = 0x5eed

// Apply runs the ordered filter list over img in place.  Filters at identity
// values are skipped; the visual result is unchanged by their presence, which
// is exactly why Compute may construct them unconditionally.
func Apply(img *image.RGBA, fs []Filter) {
	for _, f := range fs {
		switch f.Kind {
		case Brightness:
			if f.Value != 0 {
				applyBrightness(img, f.Value)
			}
		case Contrast:
			if f.Value != 0 {
				applyContrast(img, f.Value)
			}
		case Saturation:
			if f.Value != 0 {
				applySaturation(img, f.Value)
			}
		case Vibrance:
			if f.Value != 0 {
				applyVibrance(img, f.Value)
			}
		case Blur:
			if f.Value > 0 {
				applyBlur(img, f.Value)
			}
		case HueRotation:
			if f.Value != 0 {
				applyHueRotation(img, f.Value)
			}
		case Noise:
			if f.Value > 0 {
				applyNoise(img, f.Value)
			}
		case Pixelate:
			if f.Value > 1 {
				applyPixelate(img, int(f.Value))
			}
		}
	}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// eachPixel maps fn over every pixel's RGB channels, leaving alpha intact.
func eachPixel(img *image.RGBA, fn func(r, g, b float64) (float64, float64, float64)) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			nr, ng, nb := fn(float64(row[i]), float64(row[i+1]), float64(row[i+2]))
			row[i] = clamp8(nr)
			row[i+1] = clamp8(ng)
			row[i+2] = clamp8(nb)
		}
	}
}

// applyBrightness shifts all channels by value*255, value in [-1,1].
func applyBrightness(img *image.RGBA, value float64) {
	shift := value * 255
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return r + shift, g + shift, b + shift
	})
}

// applyContrast scales channel distance from mid-gray, value in [-1,1].
func applyContrast(img *image.RGBA, value float64) {
	c := value * 255
	factor := 259 * (c + 255) / (255 * (259 - c))
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return factor*(r-128) + 128, factor*(g-128) + 128, factor*(b-128) + 128
	})
}

// applySaturation applies the SVG saturate matrix with factor 1+value,
// value in [-1,1].  Uses ITU-R BT.709 luminance coefficients.
func applySaturation(img *image.RGBA, value float64) {
	s := 1 + value
	inv := 1 - s
	lr, lg, lb := 0.2126*inv, 0.7152*inv, 0.0722*inv
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return (lr+s)*r + lg*g + lb*b,
			lr*r + (lg+s)*g + lb*b,
			lr*r + lg*g + (lb+s)*b
	})
}

// applyVibrance boosts muted colors more than already-saturated ones,
// value in [-1,1].  Channels below the pixel maximum are pulled toward it in
// proportion to how far the pixel is from gray.
func applyVibrance(img *image.RGBA, value float64) {
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		max := math.Max(r, math.Max(g, b))
		avg := (r + g + b) / 3
		amt := math.Abs(max-avg) * 2 / 255 * value
		return r + (max-r)*amt, g + (max-g)*amt, b + (max-b)*amt
	})
}

// applyBlur runs a three-pass box blur, which closely approximates a Gaussian.
// value in (0,1] maps to a radius proportional to the image's larger axis.
func applyBlur(img *image.RGBA, value float64) {
	b := img.Bounds()
	maxDim := b.Dx()
	if b.Dy() > maxDim {
		maxDim = b.Dy()
	}
	radius := int(math.Round(value * float64(maxDim) / 40))
	if radius < 1 {
		radius = 1
	}
	for pass := 0; pass < 3; pass++ {
		boxBlurH(img, radius)
		boxBlurV(img, radius)
	}
}

func boxBlurH(img *image.RGBA, radius int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	line := make([]uint8, w*4)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(line, row)
		for x := 0; x < w; x++ {
			var sr, sg, sb, sa, n int
			for k := x - radius; k <= x+radius; k++ {
				if k < 0 || k >= w {
					continue
				}
				i := k * 4
				sr += int(line[i])
				sg += int(line[i+1])
				sb += int(line[i+2])
				sa += int(line[i+3])
				n++
			}
			i := x * 4
			row[i] = uint8(sr / n)
			row[i+1] = uint8(sg / n)
			row[i+2] = uint8(sb / n)
			row[i+3] = uint8(sa / n)
		}
	}
}

func boxBlurV(img *image.RGBA, radius int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	col := make([]uint8, h*4)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			copy(col[y*4:y*4+4], img.Pix[y*img.Stride+x*4:])
		}
		for y := 0; y < h; y++ {
			var sr, sg, sb, sa, n int
			for k := y - radius; k <= y+radius; k++ {
				if k < 0 || k >= h {
					continue
				}
				i := k * 4
				sr += int(col[i])
				sg += int(col[i+1])
				sb += int(col[i+2])
				sa += int(col[i+3])
				n++
			}
			i := y*img.Stride + x*4
			img.Pix[i] = uint8(sr / n)
			img.Pix[i+1] = uint8(sg / n)
			img.Pix[i+2] = uint8(sb / n)
			img.Pix[i+3] = uint8(sa / n)
		}
	}
}

// applyHueRotation rotates hues by angle radians using the
// luminance-preserving rotation matrix.
func applyHueRotation(img *image.RGBA, angle float64) {
	cosA := math.Cos(angle)
	sinA := math.Sin(angle)
	// Rotation matrix around the gray axis, BT.709 luminance weights.
	const lr, lg, lb = 0.2126, 0.7152, 0.0722
	m := [9]float64{
		lr + cosA*(1-lr) + sinA*(-lr), lg + cosA*(-lg) + sinA*(-lg), lb + cosA*(-lb) + sinA*(1-lb),
		lr + cosA*(-lr) + sinA*0.143, lg + cosA*(1-lg) + sinA*0.140, lb + cosA*(-lb) + sinA*(-0.283),
		lr + cosA*(-lr) + sinA*(-(1 - lr)), lg + cosA*(-lg) + sinA*lg, lb + cosA*(1-lb) + sinA*lb,
	}
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return m[0]*r + m[1]*g + m[2]*b,
			m[3]*r + m[4]*g + m[5]*b,
			m[6]*r + m[7]*g + m[8]*b
	})
}

// applyNoise adds uniform noise in [-value/2, value/2] per channel.
// Seeded so repeated renders of the same scene are byte-identical.
func applyNoise(img *image.RGBA, value float64) {
	rng := rand.New(rand.NewSource(noiseSeed))
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		d := (rng.Float64() - 0.5) * value
		return r + d, g + d, b + d
	})
}

// applyPixelate averages blockSize×blockSize cells.
func applyPixelate(img *image.RGBA, blockSize int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for by := 0; by < h; by += blockSize {
		for bx := 0; bx < w; bx += blockSize {
			var sr, sg, sb, sa, n int
			for y := by; y < by+blockSize && y < h; y++ {
				for x := bx; x < bx+blockSize && x < w; x++ {
					i := y*img.Stride + x*4
					sr += int(img.Pix[i])
					sg += int(img.Pix[i+1])
					sb += int(img.Pix[i+2])
					sa += int(img.Pix[i+3])
					n++
				}
			}
			ar := uint8(sr / n)
			ag := uint8(sg / n)
			ab := uint8(sb / n)
			aa := uint8(sa / n)
			for y := by; y < by+blockSize && y < h; y++ {
				for x := bx; x < bx+blockSize && x < w; x++ {
					i := y*img.Stride + x*4
					img.Pix[i] = ar
					img.Pix[i+1] = ag
					img.Pix[i+2] = ab
					img.Pix[i+3] = aa
				}
			}
		}
	}
}

package detection

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tomsarry/tubescope/models"
)

// palette holds the box colours, picked per class name.
var palette = []color.RGBA{
	{255, 56, 56, 255},
	{255, 157, 151, 255},
	{255, 112, 31, 255},
	{255, 178, 29, 255},
	{207, 210, 49, 255},
	{72, 249, 10, 255},
	{146, 204, 23, 255},
	{61, 219, 134, 255},
	{26, 147, 52, 255},
	{0, 212, 187, 255},
	{44, 153, 168, 255},
	{0, 194, 255, 255},
	{52, 69, 147, 255},
	{100, 115, 255, 255},
	{0, 24, 236, 255},
	{132, 56, 255, 255},
	{82, 0, 133, 255},
	{203, 56, 255, 255},
	{255, 149, 200, 255},
	{255, 55, 199, 255},
}

func classColor(class string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(class))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Annotate draws a box and an "class confidence" caption for every detection
// onto a copy of img. Captions use the model's own class names.
func Annotate(img image.Image, detections []models.Detection) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	thickness := max(2, min(b.Dx(), b.Dy())/300)
	face := basicfont.Face7x13

	for _, d := range detections {
		rect := clampRect(d.BBox, out.Bounds())
		if rect.Empty() {
			continue
		}
		col := classColor(d.Class)
		drawBox(out, rect, thickness, col)
		drawCaption(out, face, rect, fmt.Sprintf("%s %.2f", d.Class, d.Confidence), col)
	}
	return out
}

func clampRect(bbox [4]float64, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(math.Round(bbox[0])), int(math.Round(bbox[1])),
		int(math.Round(bbox[2])), int(math.Round(bbox[3])),
	)
	return r.Intersect(bounds)
}

func drawBox(dst *image.RGBA, r image.Rectangle, thickness int, col color.RGBA) {
	src := image.NewUniform(col)
	t := min(thickness, r.Dx()/2+1, r.Dy()/2+1)

	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
}

// drawCaption puts the label on a filled tab above the box, or just inside
// its top edge when the box touches the top of the image.
func drawCaption(dst *image.RGBA, face font.Face, box image.Rectangle, text string, col color.RGBA) {
	const pad = 2
	metrics := face.Metrics()
	textW := font.MeasureString(face, text).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()

	top := box.Min.Y - textH - 2*pad
	if top < dst.Rect.Min.Y {
		top = box.Min.Y
	}
	tab := image.Rect(box.Min.X, top, box.Min.X+textW+2*pad, top+textH+2*pad).Intersect(dst.Rect)
	draw.Draw(dst, tab, image.NewUniform(col), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(box.Min.X+pad, top+pad+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
}

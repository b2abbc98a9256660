package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextDrawer renders text on an image using a TTF font.  The built in
// Hershey fonts only cover Latin characters, alert captions in other
// scripts need a real font face.  Slower than PutText so use it for
// occasional captions only
type TextDrawer struct {
	fontFace font.Face
}

// NewTextDrawer loads the TTF font at the given path and returns a
// drawer using it at the given point size
func NewTextDrawer(fontPath string, size float64) (*TextDrawer, error) {

	// load font data
	fontBytes, err := os.ReadFile(fontPath)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	// parse the font
	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("error initializing font face: %w", err)
	}

	return &TextDrawer{
		fontFace: face,
	}, nil
}

// Draw writes the text onto the image at the given baseline position
func (t *TextDrawer) Draw(img *gocv.Mat, text string, x, y int, clr color.RGBA) error {

	// create image with text writing
	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}), image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(clr),
		Face: t.fontFace,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	dr.DrawString(text)

	// Convert image.RGBA to gocv.Mat
	imgRGBA, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(), gocv.MatTypeCV8UC4, rgba.Pix)

	if imgRGBA.Empty() || err != nil {
		return fmt.Errorf("error creating Mat from RGBA")
	}

	defer imgRGBA.Close()

	gocv.CvtColor(imgRGBA, &imgRGBA, gocv.ColorRGBAToBGR)
	gocv.AddWeighted(*img, 1.0, imgRGBA, 1.0, 0, img)

	return nil
}

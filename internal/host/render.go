package host

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/danmuck/simbridge/internal/protocol"
)

var (
	colorBackground = color.RGBA{R: 24, G: 24, B: 32, A: 255}
	colorHeadset    = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	colorLeft       = color.RGBA{R: 64, G: 128, B: 255, A: 255}
	colorRight      = color.RGBA{R: 255, G: 80, B: 64, A: 255}
	colorTarget     = color.RGBA{R: 64, G: 220, B: 96, A: 255}
)

// TargetSource exposes a point of interest to draw.
type TargetSource interface {
	Target() protocol.Vec3
}

// FrameRenderer draws a top-down view of the tracked poses as a PNG.
// The x axis maps to columns and z to rows, both over [-1, 1] meters.
type FrameRenderer struct {
	width  int
	height int
	target TargetSource
	pose   protocol.ControlMessage
}

func NewFrameRenderer(width, height int, target TargetSource) *FrameRenderer {
	return &FrameRenderer{width: width, height: height, target: target}
}

func (r *FrameRenderer) ApplyPose(msg protocol.ControlMessage) {
	r.pose = msg
}

func (r *FrameRenderer) CaptureFrame() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = colorBackground.R
		img.Pix[i+1] = colorBackground.G
		img.Pix[i+2] = colorBackground.B
		img.Pix[i+3] = colorBackground.A
	}
	if r.target != nil {
		r.dot(img, r.target.Target(), colorTarget)
	}
	r.dot(img, r.pose.HeadsetPosition, colorHeadset)
	r.dot(img, r.pose.LeftControllerPosition, colorLeft)
	r.dot(img, r.pose.RightControllerPosition, colorRight)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Project maps a world position to pixel coordinates.
func (r *FrameRenderer) Project(p protocol.Vec3) (int, int) {
	x := int((float64(p[0]) + 1) / 2 * float64(r.width-1))
	y := int((1 - (float64(p[2])+1)/2) * float64(r.height-1))
	return x, y
}

func (r *FrameRenderer) dot(img *image.RGBA, p protocol.Vec3, c color.RGBA) {
	cx, cy := r.Project(p)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x >= r.width || y >= r.height {
				continue
			}
			img.SetRGBA(x, y, c)
		}
	}
}

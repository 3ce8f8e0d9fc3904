package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
)

const (
	petAvatarSize    = 512
	productImageMax  = 1024
	maxUploadedImage = 10 << 20
)

// avatarPalette holds the background colors for generated pet avatars.
var avatarPalette = []color.NRGBA{
	{R: 0x4F, G: 0x86, B: 0xC6, A: 0xFF},
	{R: 0x3B, G: 0xA5, B: 0x7A, A: 0xFF},
	{R: 0xE0, G: 0x8E, B: 0x45, A: 0xFF},
	{R: 0xC2, G: 0x5B, B: 0x7A, A: 0xFF},
	{R: 0x7A, G: 0x62, B: 0xC4, A: 0xFF},
	{R: 0x2E, G: 0x93, B: 0xA8, A: 0xFF},
	{R: 0xB5, G: 0x8B, B: 0x3C, A: 0xFF},
	{R: 0x5C, G: 0x6B, B: 0x7A, A: 0xFF},
}

// ImageProcessor renders and normalizes the images stored for pets and products.
type ImageProcessor interface {
	// PetAvatar renders a circular initials avatar. colorHex picks the background when it is
	// one of the palette colors, otherwise the color is derived from name.
	PetAvatar(name, colorHex string) (png []byte, usedColor string, err error)
	// PetPhoto center-crops raw to a square and clips it to a 512px circle PNG.
	PetPhoto(raw []byte) ([]byte, error)
	// ProductImage scales raw down to fit 1024px and re-encodes it as PNG.
	ProductImage(raw []byte) ([]byte, error)
}

type imageProcessor struct {
	face font.Face
}

func NewImageProcessor() (ImageProcessor, error) {
	parsed, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse avatar font: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{
		Size:    206,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return &imageProcessor{face: face}, nil
}

func (p *imageProcessor) PetAvatar(name, colorHex string) ([]byte, string, error) {
	bg, hex := pickAvatarColor(name, colorHex)

	dc := gg.NewContext(petAvatarSize, petAvatarSize)
	dc.DrawCircle(petAvatarSize/2, petAvatarSize/2, petAvatarSize/2)
	dc.Clip()
	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, petAvatarSize, petAvatarSize)
	dc.Fill()

	dc.SetFontFace(p.face)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(petInitials(name), petAvatarSize/2, petAvatarSize/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, "", fmt.Errorf("encode avatar png: %w", err)
	}
	return buf.Bytes(), hex, nil
}

func (p *imageProcessor) PetPhoto(raw []byte) ([]byte, error) {
	img, err := decodeImage(raw)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, petAvatarSize, petAvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(petAvatarSize, petAvatarSize)
	dc.DrawCircle(petAvatarSize/2, petAvatarSize/2, petAvatarSize/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode photo png: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *imageProcessor) ProductImage(raw []byte) ([]byte, error) {
	img, err := decodeImage(raw)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > productImageMax || h > productImageMax {
		if w >= h {
			h = h * productImageMax / w
			w = productImageMax
		} else {
			w = w * productImageMax / h
			h = productImageMax
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	dc := gg.NewContextForRGBA(dst)
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode product png: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeImage(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if len(raw) > maxUploadedImage {
		return nil, fmt.Errorf("image exceeds %d bytes", maxUploadedImage)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}
	return img, nil
}

// petInitials takes the first letter of up to two words of the pet's name.
func petInitials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToUpper(r))
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func pickAvatarColor(name, requested string) (color.NRGBA, string) {
	want := strings.ToUpper(strings.TrimSpace(requested))
	if want != "" && !strings.HasPrefix(want, "#") {
		want = "#" + want
	}
	for _, c := range avatarPalette {
		if h := nrgbaToHex(c); h == want {
			return c, h
		}
	}
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	c := avatarPalette[int(hash.Sum32()%uint32(len(avatarPalette)))]
	return c, nrgbaToHex(c)
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// storedImage uploads png under a fresh key and then removes the previous object. Deleting
// the old key is best effort.
func storedImage(ctx context.Context, log *logger.Logger, bucket storage.BucketService, category storage.BucketCategory, ownerID uuid.UUID, oldKey string, png []byte) (string, string, error) {
	key := fmt.Sprintf("%s/%d.png", ownerID.String(), time.Now().UnixNano())
	if err := bucket.UploadFile(ctx, category, key, bytes.NewReader(png)); err != nil {
		return "", "", fmt.Errorf("upload %s image: %w", category, err)
	}
	if old := strings.TrimSpace(oldKey); old != "" && old != key {
		if err := bucket.DeleteFile(ctx, category, old); err != nil {
			log.Warn("failed to delete replaced image", "category", category, "key", old, "error", err)
		}
	}
	return key, bucket.GetPublicURL(category, key), nil
}

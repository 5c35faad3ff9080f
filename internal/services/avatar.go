package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/media"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// Default avatar palette, used when AVATAR_COLORS is not set.
var defaultAvatarColors = []color.NRGBA{
	{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF},
	{R: 0x15, G: 0x65, B: 0xC0, A: 0xFF},
	{R: 0x6A, G: 0x1B, B: 0x9A, A: 0xFF},
	{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF},
	{R: 0xEF, G: 0x6C, B: 0x00, A: 0xFF},
	{R: 0x00, G: 0x83, B: 0x8F, A: 0xFF},
}

// AvatarService renders initials avatars into the media store and points the
// user row at the result.
type AvatarService interface {
	CreateUserAvatar(ctx context.Context, user *types.User) error
	SetUserAvatarFromImage(ctx context.Context, user *types.User, raw []byte) error
	GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log   *logger.Logger
	store media.Store

	bgColors   []color.NRGBA
	colorByHex map[string]color.NRGBA

	fontFace font.Face
	rng      *rand.Rand
}

func NewAvatarService(log *logger.Logger, store media.Store) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	bgColors := defaultAvatarColors
	if raw := strings.TrimSpace(os.Getenv("AVATAR_COLORS")); raw != "" {
		parsed, err := parseColorList(raw)
		if err != nil {
			return nil, fmt.Errorf("parse AVATAR_COLORS: %w", err)
		}
		bgColors = parsed
	}

	colorByHex := make(map[string]color.NRGBA, len(bgColors))
	for _, c := range bgColors {
		colorByHex[nrgbaToHex(c)] = c
	}

	face, err := loadFontFace(206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:        serviceLog,
		store:      store,
		bgColors:   bgColors,
		colorByHex: colorByHex,
		fontFace:   face,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (as *avatarService) CreateUserAvatar(ctx context.Context, user *types.User) error {
	as.ensureUserAvatarColor(user)

	buf, err := as.GenerateUserAvatar(user)
	if err != nil {
		return err
	}
	return as.replaceAvatar(user, buf.Bytes())
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	const size = 512
	as.ensureUserAvatarColor(user)

	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	base := as.pickColor(user.AvatarColorHex)
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(user.FullName)

	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (as *avatarService) SetUserAvatarFromImage(ctx context.Context, user *types.User, raw []byte) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}
	processed, err := processUploadedAvatar(raw, 512)
	if err != nil {
		return err
	}
	return as.replaceAvatar(user, processed.Bytes())
}

// replaceAvatar writes a versioned key so cached copies of the old path stay
// valid, then best-effort deletes the previous object.
func (as *avatarService) replaceAvatar(user *types.User, png []byte) error {
	oldKey := strings.TrimSpace(user.AvatarPath)
	newKey := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())

	if _, err := as.store.Save(newKey, png); err != nil {
		return fmt.Errorf("failed to store user avatar: %w", err)
	}
	user.AvatarPath = newKey

	if oldKey != "" && oldKey != newKey {
		if err := as.store.Delete(oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return nil
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

// -------------------- Color helpers --------------------

func (as *avatarService) ensureUserAvatarColor(user *types.User) {
	if strings.TrimSpace(user.AvatarColorHex) != "" {
		n := normalizeHex(user.AvatarColorHex)
		if n != "" {
			if _, ok := as.colorByHex[n]; ok {
				user.AvatarColorHex = n
				return
			}
		}
	}
	pick := as.bgColors[as.rng.Intn(len(as.bgColors))]
	user.AvatarColorHex = nrgbaToHex(pick)
}

func (as *avatarService) pickColor(hexStr string) color.NRGBA {
	h := normalizeHex(hexStr)
	if h != "" {
		if c, ok := as.colorByHex[h]; ok {
			return c
		}
	}
	return as.bgColors[as.rng.Intn(len(as.bgColors))]
}

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	s = strings.ToUpper(s)
	if len(s) != 7 {
		return ""
	}
	if _, _, _, err := parseHexRGB(s); err != nil {
		return ""
	}
	return s
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return uint8(rv), uint8(gv), uint8(bv), nil
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// parseColorList parses a comma-separated list of hex colors.
func parseColorList(raw string) ([]color.NRGBA, error) {
	var colors []color.NRGBA
	for _, part := range strings.Split(raw, ",") {
		h := normalizeHex(part)
		if h == "" {
			return nil, fmt.Errorf("invalid color %q", part)
		}
		r, g, b, err := parseHexRGB(h)
		if err != nil {
			return nil, err
		}
		colors = append(colors, color.NRGBA{R: r, G: g, B: b, A: 0xFF})
	}
	if len(colors) == 0 {
		return nil, fmt.Errorf("color list is empty")
	}
	return colors, nil
}

// -------------------- Misc helpers --------------------

// computeInitials takes the first letter of the first and last words of the
// full name.
func computeInitials(fullName string) string {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return "?"
	}
	first := strings.ToUpper(parts[0][:1])
	if len(parts) == 1 {
		return first
	}
	return first + strings.ToUpper(parts[len(parts)-1][:1])
}

func loadFontFace(size float64) (font.Face, error) {
	var fontBytes []byte
	if path := strings.TrimSpace(os.Getenv("AVATAR_FONT")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = raw
	} else {
		fontBytes = gobold.TTF
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

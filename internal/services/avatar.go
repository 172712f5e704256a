package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/rolodex-backend/internal/domain/user"
	"github.com/yungbote/rolodex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/rolodex-backend/internal/pkg/errors"
	"github.com/yungbote/rolodex-backend/internal/platform/gcs"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

const avatarSize = 512

// Background palette for generated initials avatars. Users keep the
// color they were first assigned across regenerations.
var avatarPalette = []string{
	"#E53E3E", "#DD6B20", "#D69E2E", "#38A169", "#319795",
	"#3182CE", "#5A67D8", "#805AD5", "#D53F8C", "#718096",
}

// AvatarService renders and stores profile pictures: a generated
// initials circle at registration, or a processed upload afterwards.
// It mutates the user's avatar fields; persisting them is the caller's
// job.
type AvatarService interface {
	CreateAndUploadUserAvatar(dbc dbctx.Context, u *user.User) error
	CreateAndUploadUserAvatarFromImage(dbc dbctx.Context, u *user.User, raw []byte) error
	GenerateUserAvatar(u *user.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	bucketService gcs.BucketService

	bgColors   []color.NRGBA
	colorByHex map[string]color.NRGBA

	fontFace font.Face
}

func NewAvatarService(log *logger.Logger, bucketService gcs.BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	bgColors := make([]color.NRGBA, 0, len(avatarPalette))
	colorByHex := make(map[string]color.NRGBA, len(avatarPalette))
	for _, h := range avatarPalette {
		r, g, b, err := parseHexRGB(h)
		if err != nil {
			return nil, fmt.Errorf("invalid palette color %q: %w", h, err)
		}
		c := color.NRGBA{R: r, G: g, B: b, A: 255}
		bgColors = append(bgColors, c)
		colorByHex[strings.ToUpper(h)] = c
	}

	fontPath := os.Getenv("AVATAR_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("env var AVATAR_FONT is empty")
	}
	serviceLog.Info("Loading avatar font", "font", fontPath)

	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:           serviceLog,
		bucketService: bucketService,
		bgColors:      bgColors,
		colorByHex:    colorByHex,
		fontFace:      face,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(dbc dbctx.Context, u *user.User) error {
	if u == nil || u.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}
	as.ensureUserAvatarColor(u)

	buf, err := as.GenerateUserAvatar(u)
	if err != nil {
		return err
	}
	return as.swapAvatarObject(dbc, u, buf.Bytes())
}

func (as *avatarService) CreateAndUploadUserAvatarFromImage(dbc dbctx.Context, u *user.User, raw []byte) error {
	if u == nil || u.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}

	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return err
	}
	return as.swapAvatarObject(dbc, u, processed.Bytes())
}

// swapAvatarObject uploads the new object under a versioned key, points
// the user at it, then best-effort sweeps older versions. Versioned keys
// keep CDNs from serving stale cached avatars; sweeping the whole prefix
// also collects leftovers from earlier swaps whose delete failed.
func (as *avatarService) swapAvatarObject(dbc dbctx.Context, u *user.User, png []byte) error {
	newKey := fmt.Sprintf("user_avatar/%s/%d.png", u.ID.String(), time.Now().UnixNano())

	if err := as.bucketService.UploadFile(dbc.Ctx, newKey, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}

	u.AvatarBucketKey = newKey
	u.AvatarURL = as.bucketService.GetPublicURL(newKey)

	as.sweepStaleAvatars(dbc.Ctx, u.ID, newKey)
	return nil
}

// sweepStaleAvatars deletes every object under the user's avatar prefix
// except keep. Failures are logged only; the new avatar is already live.
func (as *avatarService) sweepStaleAvatars(ctx context.Context, userID uuid.UUID, keep string) {
	prefix := fmt.Sprintf("user_avatar/%s/", userID.String())
	keys, err := as.bucketService.ListKeys(ctx, prefix)
	if err != nil {
		as.log.Warn("Failed to list old avatars (ignored)", "prefix", prefix, "error", err)
		return
	}
	for _, k := range keys {
		if k == keep {
			continue
		}
		if err := as.bucketService.DeleteFile(ctx, k); err != nil {
			as.log.Warn("Failed to delete old avatar (ignored)", "key", k, "error", err)
		}
	}
}

func (as *avatarService) GenerateUserAvatar(u *user.User) (bytes.Buffer, error) {
	as.ensureUserAvatarColor(u)

	dc := gg.NewContext(avatarSize, avatarSize)

	// Clip to circle
	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	// Fill bg
	base := as.pickColor(u.AvatarColor)
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	// Initials
	initials := computeInitials(u.FirstName, u.LastName)

	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(avatarSize)/2, float64(avatarSize)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		// Callers treat an undecodable payload as caller error, not a
		// storage failure.
		return out, fmt.Errorf("decode image: %w: %v", pkgerrors.ErrInvalidArgument, err)
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

	// Resize to NxN
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	// Circle clip with gg
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

func (as *avatarService) ensureUserAvatarColor(u *user.User) {
	if strings.TrimSpace(u.AvatarColor) != "" {
		n := normalizeHex(u.AvatarColor)
		if n != "" {
			if _, ok := as.colorByHex[n]; ok {
				u.AvatarColor = n
				return
			}
		}
	}

	pick := as.bgColors[rand.Intn(len(as.bgColors))]
	u.AvatarColor = nrgbaToHex(pick)
}

func (as *avatarService) pickColor(hexStr string) color.NRGBA {
	h := normalizeHex(hexStr)
	if h != "" {
		if c, ok := as.colorByHex[h]; ok {
			return c
		}
	}
	return as.bgColors[rand.Intn(len(as.bgColors))]
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
	_, _, _, err := parseHexRGB(s)
	if err != nil {
		return ""
	}
	return s
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	if strings.HasPrefix(s, "#") {
		s = s[1:]
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}

	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return raw[0], raw[1], raw[2], nil
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// -------------------- Misc helpers --------------------

func computeInitials(first, last string) string {
	fInit := "?"
	if len(first) > 0 {
		fInit = strings.ToUpper(first[:1])
	}
	lInit := "?"
	if len(last) > 0 {
		lInit = strings.ToUpper(last[:1])
	}
	return fInit + lInit
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}

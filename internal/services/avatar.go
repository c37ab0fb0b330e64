package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
	"github.com/pybook/pybook-backend/internal/utils"
)

const avatarSize = 512

type AvatarService interface {
	// CreateUserAvatar renders an initials avatar to the local avatar dir and
	// sets user.AvatarURL. The user row itself is not persisted here.
	CreateUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error
	// SetUserAvatarFromImage center-crops, resizes and circle-clips an
	// uploaded image, replacing the generated one.
	SetUserAvatarFromImage(ctx context.Context, tx *gorm.DB, user *types.User, raw []byte) error
	GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
	// Dir is the on-disk directory avatars are written to, for static serving.
	Dir() string
	// PublicPath is the URL prefix the avatar dir is served under.
	PublicPath() string
}

type avatarService struct {
	log        *logger.Logger
	dir        string
	publicPath string
	bgColors   []color.NRGBA
	fontFace   font.Face
}

// Default palette, used when no font-adjacent theme is configured.
var defaultAvatarColors = []color.NRGBA{
	{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
	{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
	{R: 0xEC, G: 0x48, B: 0x99, A: 0xFF},
	{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
	{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
	{R: 0x06, G: 0xB6, B: 0xD4, A: 0xFF},
	{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
}

func NewAvatarService(log *logger.Logger) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	dir := utils.GetEnv("AVATAR_DIR", "./data/avatars", log)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}

	fontPath := utils.GetEnv("AVATAR_FONT", "", log)
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("env var AVATAR_FONT is empty")
	}
	serviceLog.Info("loading avatar font", "font", fontPath)
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("load avatar font: %w", err)
	}

	return &avatarService{
		log:        serviceLog,
		dir:        dir,
		publicPath: utils.GetEnv("AVATAR_PUBLIC_PATH", "/static/avatars", log),
		bgColors:   defaultAvatarColors,
		fontFace:   face,
	}, nil
}

func loadFontFace(path string, points float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: points}), nil
}

func (as *avatarService) Dir() string { return as.dir }

func (as *avatarService) PublicPath() string { return as.publicPath }

func (as *avatarService) CreateUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("user required: %w", apperrors.ErrInvalidArgument)
	}
	buf, err := as.GenerateUserAvatar(user)
	if err != nil {
		return err
	}
	return as.writeAvatar(user, buf.Bytes())
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	base := as.bgColors[rand.Intn(len(as.bgColors))]
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName)
	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(avatarSize)/2, float64(avatarSize)/2
	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("encode png: %w", err)
	}
	return buf, nil
}

func (as *avatarService) SetUserAvatarFromImage(ctx context.Context, tx *gorm.DB, user *types.User, raw []byte) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("user required: %w", apperrors.ErrInvalidArgument)
	}
	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return err
	}
	return as.writeAvatar(user, processed.Bytes())
}

// writeAvatar stores under a versioned name so browsers never serve a stale
// cached avatar, then best-effort deletes the previous file.
func (as *avatarService) writeAvatar(user *types.User, data []byte) error {
	oldURL := strings.TrimSpace(user.AvatarURL)

	name := fmt.Sprintf("%s-%d.png", user.ID.String(), time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(as.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write avatar file: %w", err)
	}
	user.AvatarURL = as.publicPath + "/" + name

	if oldURL != "" && strings.HasPrefix(oldURL, as.publicPath+"/") {
		oldName := filepath.Base(oldURL)
		if err := os.Remove(filepath.Join(as.dir, oldName)); err != nil && !os.IsNotExist(err) {
			as.log.Warn("failed to delete old avatar (ignored)", "file", oldName, "error", err)
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

	// Center-crop to square.
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
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

func computeInitials(first, last string) string {
	fInit := "?"
	if len(first) > 0 {
		fInit = strings.ToUpper(first[:1])
	}
	lInit := ""
	if len(last) > 0 {
		lInit = strings.ToUpper(last[:1])
	}
	return fInit + lInit
}

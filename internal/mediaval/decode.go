// Package mediaval checks uploaded creatives against a panel's resolution and drives the
// campaign media status workflow.
package mediaval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	_ "golang.org/x/image/webp"
)

// ErrUndecodable is returned when a file is neither a readable image nor a probeable video.
var ErrUndecodable = errors.New("file is not a readable image or video")

// File is a creative on local disk.
type File struct {
	Path        string
	Name        string
	ContentType string
}

// IsVideo reports whether the declared MIME type is a video type.
func (f File) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "video/")
}

// Dimensions is what decoding a creative yields.
type Dimensions struct {
	Width    int
	Height   int
	Duration int // seconds, videos only
}

// Resolution formats d as WxH.
func (d Dimensions) Resolution() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Decoder reads a creative's pixel dimensions.
type Decoder interface {
	Decode(ctx context.Context, f File) (Dimensions, error)
}

// ImageDecoder reads image headers (png, jpeg, gif, webp) without decoding pixels.
type ImageDecoder struct{}

// Decode implements Decoder.
func (ImageDecoder) Decode(ctx context.Context, f File) (Dimensions, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return Dimensions{}, fmt.Errorf("open: %w", err)
	}
	defer fh.Close()
	cfg, _, err := image.DecodeConfig(fh)
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, ErrUndecodable
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// VideoProber reads the first video stream's dimensions with ffprobe.
type VideoProber struct {
	// Binary is the ffprobe executable; empty means "ffprobe" on PATH.
	Binary string
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Decode implements Decoder.
func (p VideoProber) Decode(ctx context.Context, f File) (Dimensions, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_type,width,height,duration:format=duration",
		"-of", "json",
		f.Path,
	)
	out, err := cmd.Output()
	if err != nil {
		return Dimensions{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (Dimensions, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return Dimensions{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, s := range probe.Streams {
		if s.CodecType != "" && s.CodecType != "video" {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			continue
		}
		d := Dimensions{Width: s.Width, Height: s.Height}
		d.Duration = parseSeconds(s.Duration)
		if d.Duration == 0 {
			d.Duration = parseSeconds(probe.Format.Duration)
		}
		return d, nil
	}
	return Dimensions{}, ErrUndecodable
}

func parseSeconds(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

// FallbackDecoder decodes as an image first and, when that fails for a video MIME type,
// probes the file as a video.
type FallbackDecoder struct {
	Image Decoder
	Video Decoder
}

// NewFallbackDecoder wires the image decoder with an ffprobe-backed video prober.
func NewFallbackDecoder(ffprobeBinary string) *FallbackDecoder {
	return &FallbackDecoder{Image: ImageDecoder{}, Video: VideoProber{Binary: ffprobeBinary}}
}

// Decode implements Decoder.
func (d *FallbackDecoder) Decode(ctx context.Context, f File) (Dimensions, error) {
	dims, imgErr := d.Image.Decode(ctx, f)
	if imgErr == nil {
		return dims, nil
	}
	if !f.IsVideo() || d.Video == nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrUndecodable, imgErr)
	}
	dims, vidErr := d.Video.Decode(ctx, f)
	if vidErr != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrUndecodable, vidErr)
	}
	return dims, nil
}

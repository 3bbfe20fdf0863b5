package main

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/chronologos/ledwall/internal/auth"
	"github.com/chronologos/ledwall/internal/display"
	"github.com/chronologos/ledwall/internal/protocol"
	"github.com/chronologos/ledwall/internal/transport"
)

// withSession connects using the resolved config, runs fn, flushes and
// closes. fn's commands are only delivered if it returns nil.
func withSession(cmd *cobra.Command, gf *globalFlags, fn func(*display.Session) error) error {
	cfg, err := gf.load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	dial := transport.DialOptions{Mode: cfg.Client.Mode, Header: auth.Header(cfg.Client.Token)}
	if cfg.Client.Mode == transport.ModeTLS || cfg.Client.Mode == transport.ModeQUIC {
		dial.TLSConfig, err = transport.LoadClientTLSConfig(cfg.Client.CAFile, cfg.Client.ServerName)
		if err != nil {
			return err
		}
	}

	connectCtx, cancel := context.WithTimeout(cmd.Context(), cfg.Client.Timeout)
	defer cancel()
	s, err := display.Connect(connectCtx, cfg.Client.Address,
		display.WithLogger(logger),
		display.WithDialOptions(dial),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	return s.FlushContext(cmd.Context())
}

func infoCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Connect and print the display dimensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, gf, func(s *display.Session) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%dx%d (%d pixels)\n", s.Width(), s.Height(), s.TotalPixels())
				return nil
			})
		},
	}
}

func fillCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fill COLOR",
		Short: "Fill the whole display with one color",
		Example: `  ledwall fill '#ff8800'
  ledwall fill 255,136,0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseColor(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, gf, func(s *display.Session) error {
				return s.FillColor(c)
			})
		},
	}
}

func pixelCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pixel X Y COLOR",
		Short: "Set one pixel",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseCoords(args[:2])
			if err != nil {
				return err
			}
			c, err := parseColor(args[2])
			if err != nil {
				return err
			}
			return withSession(cmd, gf, func(s *display.Session) error {
				return s.SetPixel(protocol.Point{X: xy[0], Y: xy[1]}, c)
			})
		},
	}
}

func rectCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rect X Y WIDTH HEIGHT COLOR",
		Short: "Fill a rectangle with one color",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseCoords(args[:4])
			if err != nil {
				return err
			}
			c, err := parseColor(args[4])
			if err != nil {
				return err
			}
			a := protocol.Area{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
			return withSession(cmd, gf, func(s *display.Session) error {
				return s.FillArea(a, c)
			})
		},
	}
}

func imageCmd(gf *globalFlags) *cobra.Command {
	var (
		x, y    uint8
		fit     bool
		loops   int
		minStep time.Duration
	)

	cmd := &cobra.Command{
		Use:   "image FILE",
		Short: "Draw a PNG, JPEG, GIF, BMP or WebP image",
		Long: `Draw an image with its top-left corner at (--x, --y). Parts that fall
outside the display are cropped. Animated GIFs are played frame by frame,
flushing after each frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, delays, err := loadFrames(args[0])
			if err != nil {
				return err
			}
			at := protocol.Point{X: x, Y: y}

			return withSession(cmd, gf, func(s *display.Session) error {
				if fit && x < s.Width() && y < s.Height() {
					for i := range frames {
						frames[i] = scaleToFit(frames[i], s.Width()-x, s.Height()-y)
					}
				}
				if len(frames) == 1 {
					return s.DrawImage(at, frames[0])
				}
				return playFrames(cmd.Context(), s, at, frames, delays, loops, minStep)
			})
		},
	}

	cmd.Flags().Uint8Var(&x, "x", 0, "left edge on the display")
	cmd.Flags().Uint8Var(&y, "y", 0, "top edge on the display")
	cmd.Flags().BoolVar(&fit, "fit", false, "scale the image down to the space right of and below (x, y)")
	cmd.Flags().IntVar(&loops, "loops", 1, "times to play an animation (0 loops until interrupted)")
	cmd.Flags().DurationVar(&minStep, "min-delay", 20*time.Millisecond, "lower bound on the delay between animation frames")
	return cmd
}

// loadFrames decodes path. GIFs yield every composited frame with its
// delay; other formats yield a single frame.
func loadFrames(path string) ([]image.Image, []time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".gif") {
		g, err := gif.DecodeAll(f)
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return compositeGIF(g)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []image.Image{img}, []time.Duration{0}, nil
}

// compositeGIF renders each GIF frame over the previous one, honouring
// DisposalBackground and DisposalPrevious.
func compositeGIF(g *gif.GIF) ([]image.Image, []time.Duration, error) {
	if len(g.Image) == 0 {
		return nil, nil, fmt.Errorf("gif has no frames")
	}
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	frames := make([]image.Image, 0, len(g.Image))
	delays := make([]time.Duration, 0, len(g.Image))
	for i, frame := range g.Image {
		var saved *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			saved = image.NewRGBA(bounds)
			draw.Copy(saved, bounds.Min, canvas, bounds, draw.Src, nil)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		out := image.NewRGBA(bounds)
		draw.Copy(out, bounds.Min, canvas, bounds, draw.Src, nil)
		frames = append(frames, out)

		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		delays = append(delays, time.Duration(delay)*10*time.Millisecond)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return frames, delays, nil
}

// scaleToFit shrinks img to fit within maxW x maxH, keeping its aspect
// ratio. Images that already fit are returned unchanged.
func scaleToFit(img image.Image, maxW, maxH uint8) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if (w <= int(maxW) && h <= int(maxH)) || w == 0 || h == 0 {
		return img
	}
	if maxW == 0 || maxH == 0 {
		return image.NewRGBA(image.Rectangle{})
	}

	// Pick the tighter axis.
	nw, nh := int(maxW), h*int(maxW)/w
	if nh > int(maxH) {
		nw, nh = w*int(maxH)/h, int(maxH)
	}
	nw, nh = max(nw, 1), max(nh, 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func playFrames(ctx context.Context, s *display.Session, at protocol.Point, frames []image.Image, delays []time.Duration, loops int, minStep time.Duration) error {
	for n := 0; loops <= 0 || n < loops; n++ {
		for i, frame := range frames {
			if err := s.DrawImage(at, frame); err != nil {
				return err
			}
			if err := s.FlushContext(ctx); err != nil {
				return err
			}

			t := time.NewTimer(max(delays[i], minStep))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return nil
}

// parseColor accepts "#rrggbb", "rrggbb" or "r,g,b" with decimal
// components.
func parseColor(s string) (protocol.Color, error) {
	s = strings.TrimSpace(s)
	if parts := strings.Split(s, ","); len(parts) == 3 {
		v, err := parseCoords(parts)
		if err != nil {
			return protocol.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return protocol.RGB(v[0], v[1], v[2]), nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return protocol.Color{}, fmt.Errorf("invalid color %q: want #rrggbb or r,g,b", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return protocol.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return protocol.RGB(uint8(n>>16), uint8(n>>8), uint8(n)), nil
}

// parseCoords parses each argument as a value in 0..255.
func parseCoords(args []string) ([]uint8, error) {
	out := make([]uint8, len(args))
	for i, a := range args {
		n, err := strconv.ParseUint(strings.TrimSpace(a), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%q is not a value between 0 and 255", a)
		}
		out[i] = uint8(n)
	}
	return out, nil
}

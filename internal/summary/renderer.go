package summary

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/countryrates/country-service/internal/country"
	"github.com/countryrates/country-service/pkg/logger"
	"github.com/countryrates/country-service/pkg/metrics"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	width      = 1000
	height     = 600
	padding    = 20
	flagWidth  = 50
	flagHeight = 30
	rowHeight  = 40
	topN       = 5

	titleY    = padding
	totalY    = titleY + 60
	headerY   = totalY + 40
	firstRowY = headerY + 30

	maxFlagBytes = 2 << 20
)

// Report describes the best-effort parts of a render.
type Report struct {
	FlagsDrawn  int
	FlagsFailed int
}

// Renderer draws the summary PNG from the stored countries.
type Renderer struct {
	client *http.Client
	now    func() time.Time
}

func NewRenderer(flagTimeout time.Duration) *Renderer {
	return &Renderer{
		client: &http.Client{Timeout: flagTimeout},
		now:    time.Now,
	}
}

// Render draws the title, the total count, the top GDP countries with their
// flags and a UTC timestamp. Flag failures are counted, never returned.
func (r *Renderer) Render(ctx context.Context, countries []country.Country) ([]byte, Report, error) {
	top := topByGDP(countries, topN)
	flags, rep := r.fetchFlags(ctx, top)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	drawText(img, padding, titleY, "Countries Summary", 2)
	drawText(img, padding, totalY, fmt.Sprintf("Total countries: %d", len(countries)), 1)
	drawText(img, padding, headerY, "Top countries by estimated GDP:", 1)

	y := firstRowY
	for i, c := range top {
		if flags[i] != nil {
			pasteThumbnail(img, flags[i], image.Pt(padding, y))
		}
		drawText(img, padding+flagWidth+15, y+8, fmt.Sprintf("%s - GDP: %.2f", c.Name, c.EstimatedGDP), 1)
		y += rowHeight
	}

	stamp := r.now().UTC().Format("2006-01-02 15:04:05")
	drawText(img, padding, height-40, "Last refreshed: "+stamp, 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, rep, fmt.Errorf("encode summary: %w", err)
	}
	return buf.Bytes(), rep, nil
}

// fetchFlags downloads flag images concurrently; slot i is nil when flag i failed.
func (r *Renderer) fetchFlags(ctx context.Context, top []country.Country) ([]image.Image, Report) {
	flags := make([]image.Image, len(top))
	errs := make([]error, len(top))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range top {
		if c.FlagURL == nil || *c.FlagURL == "" {
			continue
		}
		url := *c.FlagURL
		g.Go(func() error {
			flags[i], errs[i] = r.fetchFlag(gctx, url)
			return nil
		})
	}
	_ = g.Wait()

	var rep Report
	for i, err := range errs {
		switch {
		case err != nil:
			rep.FlagsFailed++
			metrics.FlagFailures.Inc()
			logger.L().Warn("skipping flag", zap.String("country", top[i].Name), zap.Error(err))
		case flags[i] != nil:
			rep.FlagsDrawn++
		}
	}
	return flags, rep
}

func (r *Renderer) fetchFlag(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flag status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxFlagBytes))
	if err != nil {
		return nil, fmt.Errorf("decode flag: %w", err)
	}
	return img, nil
}

func topByGDP(countries []country.Country, n int) []country.Country {
	out := make([]country.Country, 0, len(countries))
	for _, c := range countries {
		if c.EstimatedGDP != 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EstimatedGDP > out[j].EstimatedGDP })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// pasteThumbnail shrinks src to fit the flag box, keeping its aspect ratio.
func pasteThumbnail(dst draw.Image, src image.Image, at image.Point) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	scale := min(float64(flagWidth)/float64(b.Dx()), float64(flagHeight)/float64(b.Dy()), 1)
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	xdraw.ApproxBiLinear.Scale(dst, image.Rect(at.X, at.Y, at.X+w, at.Y+h), src, b, draw.Over, nil)
}

// drawText writes s with its top-left corner at (x, y), magnified by scale.
func drawText(dst draw.Image, x, y int, s string, scale int) {
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	if scale <= 1 {
		d := font.Drawer{Dst: dst, Src: image.NewUniform(color.Black), Face: face, Dot: fixed.P(x, y+ascent)}
		d.DrawString(s)
		return
	}
	d := font.Drawer{Face: face}
	w := d.MeasureString(s).Ceil()
	h := face.Metrics().Height.Ceil()
	tmp := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Dst = tmp
	d.Src = image.NewUniform(color.Black)
	d.Dot = fixed.P(0, ascent)
	d.DrawString(s)
	xdraw.NearestNeighbor.Scale(dst, image.Rect(x, y, x+w*scale, y+h*scale), tmp, tmp.Bounds(), draw.Over, nil)
}

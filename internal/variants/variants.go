package variants

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/photomarathon/pipeline/internal/keys"
	"github.com/photomarathon/pipeline/internal/upload"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/variants")

type Config struct {
	ThumbnailMaxPx int
	PreviewMaxPx   int
	JPEGQuality    int
}

var DefaultConfig = Config{
	ThumbnailMaxPx: 400,
	PreviewMaxPx:   1600,
	JPEGQuality:    80,
}

type Result struct {
	Thumbnail keys.Key
	Preview   keys.Key
}

// Generator renders the thumbnail and preview of an original and stores both next to it
type Generator struct {
	uploader upload.Uploader
	config   Config
}

func NewGenerator(uploader upload.Uploader, config Config) *Generator {
	return &Generator{uploader: uploader, config: config}
}

type rendered struct {
	key  keys.Key
	body []byte
	size image.Point
}

// Fit img inside a max x max box, never upscaling
func fit(img image.Image, maxPx int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxPx && b.Dy() <= maxPx {
		return img
	}
	return imaging.Fit(img, maxPx, maxPx, imaging.Lanczos)
}

func (g *Generator) render(img image.Image, format imaging.Format, key keys.Key, maxPx int) (rendered, error) {
	out := fit(img, maxPx)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, out, format, imaging.JPEGQuality(g.config.JPEGQuality)); err != nil {
		return rendered{}, fmt.Errorf("encode %s: %w", key.Category, err)
	}

	return rendered{key: key, body: buf.Bytes(), size: out.Bounds().Size()}, nil
}

func contentType(format imaging.Format) string {
	switch format {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// Generate renders both variants before uploading either. A failure anywhere fails the whole unit.
func (g *Generator) Generate(ctx context.Context, original []byte, key keys.Key) (Result, error) {
	ctx, span := tracer.Start(ctx, "Generator.Generate", trace.WithAttributes(
		attribute.String("key", key.String()),
		attribute.Int("originalBytes", len(original)),
	))
	defer span.End()

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode original")
		return Result{}, fmt.Errorf("decode original: %w", err)
	}

	format, err := imaging.FormatFromFilename(key.FileName)
	if err != nil {
		format = imaging.JPEG
	}

	thumb, err := g.render(img, format, key.Variant(keys.CategoryThumbnail), g.config.ThumbnailMaxPx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render thumbnail")
		return Result{}, err
	}

	preview, err := g.render(img, format, key.Variant(keys.CategoryPreview), g.config.PreviewMaxPx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render preview")
		return Result{}, err
	}

	for _, r := range []rendered{thumb, preview} {
		span.AddEvent("uploading_variant", trace.WithAttributes(
			attribute.String("key", r.key.String()),
			attribute.Int("width", r.size.X),
			attribute.Int("height", r.size.Y),
		))

		err = g.uploader.Upload(ctx, bytes.NewReader(r.body), int64(len(r.body)), r.key.String(), contentType(format))
		if err != nil {
			err = errors.Join(fmt.Errorf("upload %s", r.key.Category), err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to upload variant")
			return Result{}, err
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "generated variants")
	return Result{Thumbnail: thumb.key, Preview: preview.key}, nil
}

package handlers

import (
	"bytes"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/media"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

// TextToAudio synthesizes speech from text into an MP3 artifact.
func TextToAudio(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryAudioGen)

		text := c.FormValue("text")
		if text == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "No text",
			})
		}
		lang := formValueDefault(c, "target_language", "en")

		base := svc.Store.NewName("speech", "")
		path, err := media.SpeechFile(svc.Store.Dir(), base, text, lang)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"file_url": svc.Store.URL(filepath.Base(path)),
		})
	}
}

// AudioToText transcribes an uploaded audio file.
func AudioToText(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryTranscribe)

		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "No file",
			})
		}
		lang := formValueDefault(c, "language", "en-US")

		staged := svc.Store.NewName("temp", "wav")
		if err := c.SaveFile(fh, svc.Store.Path(staged)); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		defer svc.Store.Remove(staged)

		text, err := svc.LLM.Transcribe(c.Context(), svc.Store.Path(staged), lang)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"text":    text,
		})
	}
}

// VideoToAudio extracts the audio track of an uploaded video.
func VideoToAudio(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryVidAudio)

		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "No file",
			})
		}

		staged := svc.Store.NewName("temp_vid", "mp4")
		if err := c.SaveFile(fh, svc.Store.Path(staged)); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		defer svc.Store.Remove(staged)

		out := svc.Store.NewName("extracted", "mp3")
		if err := media.ExtractAudio(svc.Store.Path(staged), svc.Store.Path(out)); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"file_url": svc.Store.URL(out),
		})
	}
}

// ConvertFile re-encodes an uploaded image into the requested format.
func ConvertFile(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryFileConv)

		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "No file",
			})
		}
		format := formValueDefault(c, "format", "PNG")

		src, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		defer src.Close()

		var out bytes.Buffer
		ext, err := media.ConvertImage(&out, src, format)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		name, err := svc.Store.SaveBytes("conv", ext, out.Bytes())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"file_url": svc.Store.URL(name),
		})
	}
}

// CompressImage re-encodes an uploaded image as a quality-30 JPEG.
func CompressImage(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryCompression)

		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "No file",
			})
		}

		src, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		defer src.Close()

		var out bytes.Buffer
		if err := media.CompressImage(&out, src); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		name, err := svc.Store.SaveBytes("comp", "jpg", out.Bytes())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"file_url": svc.Store.URL(name),
		})
	}
}

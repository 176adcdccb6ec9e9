// Package handlers is made to handle requests
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
	"github.com/FranciscoFerrutti/cripto-steganography/crypto"
	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"github.com/FranciscoFerrutti/cripto-steganography/quality"
	"github.com/FranciscoFerrutti/cripto-steganography/stego"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes bounds the multipart form kept in memory
const DefaultMaxUploadBytes = 32 << 20

type StegoHandler struct {
	maxUploadBytes int64
}

func NewStegoHandler(maxUploadBytes int64) *StegoHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &StegoHandler{
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts the health check and the stego routes on api
func (h *StegoHandler) Register(api *gin.RouterGroup) {
	api.GET("/health", h.HealthCheck)

	group := api.Group("/stego")
	{
		group.POST("/embed", h.EmbedSecret)
		group.POST("/extract", h.ExtractSecret)
		group.POST("/capacity", h.CarrierCapacity)
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Steganography API is running",
		"version": "1.0.0",
		"methods": models.Methods,
	})
}

func (h *StegoHandler) EmbedSecret(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	config, err := stegoConfigFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	grid, carrierHeader, err := readCarrier(c, "carrier_file")
	if err != nil {
		respondError(c, err)
		return
	}

	secretData, secretHeader, err := readFormFile(c, "secret_file")
	if err != nil {
		respondError(c, err)
		return
	}

	steganographer, err := stego.NewSteganographer(config)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := steganographer.Embed(grid, secretData, secretHeader.Filename)
	if err != nil {
		respondError(c, fmt.Errorf("failed to embed secret data: %w", err))
		return
	}

	stegoImage, err := bitmap.EncodeBytes(result.Grid)
	if err != nil {
		respondError(c, err)
		return
	}

	baseFilename := strings.TrimSuffix(carrierHeader.Filename, filepath.Ext(carrierHeader.Filename))
	outputFilename := fmt.Sprintf("%s_stego.bmp", baseFilename)

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment(outputFilename))

	// Include metadata about the steganography operation
	c.Header("X-Stego-Method", string(result.Method))
	c.Header("X-Stego-Message", fmt.Sprintf("Embedded %s of %s available",
		humanize.Bytes(uint64(result.FramedBytes)), humanize.Bytes(uint64(result.CapacityBytes))))
	c.Header("X-Stego-Capacity", fmt.Sprintf("%d", result.CapacityBytes))
	c.Header("X-Stego-PSNR", quality.FormatPSNR(result.Quality.PSNR))
	c.Header("X-Stego-Quality", qualityLabel(result.Quality))

	c.Data(http.StatusOK, "image/bmp", stegoImage)
}

func (h *StegoHandler) ExtractSecret(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	config, err := stegoConfigFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	grid, _, err := readCarrier(c, "stego_file")
	if err != nil {
		respondError(c, err)
		return
	}

	steganographer, err := stego.NewSteganographer(config)
	if err != nil {
		respondError(c, err)
		return
	}

	secretData, ext, err := steganographer.Extract(grid)
	if err != nil {
		respondError(c, fmt.Errorf("failed to extract secret data: %w", err))
		return
	}

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment("secret"+ext))
	c.Header("X-Stego-Method", string(config.Method))

	c.Data(http.StatusOK, "application/octet-stream", secretData)
}

func (h *StegoHandler) CarrierCapacity(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	grid, _, err := readCarrier(c, "carrier_file")
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.CapacityResponse{
		Success: true,
		Width:   grid.Width,
		Height:  grid.Height,
	}
	for _, method := range models.Methods {
		n, err := stego.CapacityBytes(method, grid)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.Capacities = append(resp.Capacities, models.MethodCapacity{
			Method: method,
			Bytes:  n,
			Human:  humanize.Bytes(uint64(n)),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *StegoHandler) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return false
	}
	return true
}

func stegoConfigFromForm(c *gin.Context) (*models.StegoConfig, error) {
	method, err := models.ParseMethod(c.PostForm("method"))
	if err != nil {
		return nil, err
	}
	opts, err := crypto.ResolveOptions(c.PostForm("password"), c.PostForm("algorithm"), c.PostForm("mode"))
	if err != nil {
		return nil, err
	}
	return &models.StegoConfig{Method: method, Cipher: opts}, nil
}

func readFormFile(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s is required", models.ErrInvalidArguments, field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read %s: %v", models.ErrIO, field, err)
	}
	return data, header, nil
}

func readCarrier(c *gin.Context, field string) (*bitmap.PixelGrid, *multipart.FileHeader, error) {
	data, header, err := readFormFile(c, field)
	if err != nil {
		return nil, nil, err
	}
	if !isValidBMPFile(header.Filename) {
		return nil, nil, fmt.Errorf("%w: only BMP files are supported, got %s", models.ErrUnsupportedFormat, header.Filename)
	}

	grid, err := bitmap.DecodeBytes(data)
	if err != nil {
		return nil, nil, err
	}
	return grid, header, nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArguments), errors.Is(err, models.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrCapacityExceeded), errors.Is(err, models.ErrFraming),
		errors.Is(err, models.ErrExtraction), errors.Is(err, models.ErrCrypto):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), models.StegoResponse{
		Success: false,
		Message: err.Error(),
	})
}

// attachment builds a Content-Disposition value, quoting the name when needed
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func qualityLabel(r quality.Report) string {
	if r.Acceptable(quality.MinAcceptablePSNR) {
		return "ok"
	}
	return "degraded"
}

func isValidBMPFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".bmp"
}

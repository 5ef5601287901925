package api

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/youruser/dexlabel/internal/dex"
	imagepkg "github.com/youruser/dexlabel/internal/image"
	"github.com/youruser/dexlabel/internal/label"
	"github.com/youruser/dexlabel/internal/lookup"
	"github.com/youruser/dexlabel/internal/palette"
)

// Generator renders one label pair into a stage.
type Generator interface {
	Generate(ctx context.Context, stage *lookup.Stage, input string) (*label.Card, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	gen Generator
	log *slog.Logger
}

// NewServer creates a Server.
func NewServer(gen Generator, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{gen: gen, log: log}
}

// health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type typeInfo struct {
	Name  string      `json:"name"`
	Color palette.Hex `json:"color"`
	Text  palette.Hex `json:"text"`
}

// types lists the type colors in table order.
func (s *Server) types(c *gin.Context) {
	out := make([]typeInfo, 0, len(palette.Types()))
	for _, t := range palette.Types() {
		col := palette.TypeColor(t)
		out = append(out, typeInfo{Name: t, Color: col, Text: palette.ContrastingText(col)})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "types": out})
}

// qr endpoint returns a PNG of a QR for "text" query param
func (s *Server) qr(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := 256
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = min(max(v, 64), 1024)
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

type labelRequest struct {
	Query string `json:"query"`
}

type labelResponse struct {
	Name  string   `json:"name"`
	ID    int      `json:"id"`
	Types []string `json:"types"`
	Front string   `json:"front"` // base64 PNG
	Back  string   `json:"back"`  // base64 PNG
}

// createLabel renders both canvases and returns them base64-encoded.
func (s *Server) createLabel(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, sink, err := s.render(c.Request.Context(), req.Query)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := labelResponse{Name: card.Name, ID: card.ID, Types: card.Types}
	for _, it := range sink.Items() {
		b, err := lookup.EncodePNG(it.Image)
		if err != nil {
			s.fail(c, err)
			return
		}
		enc := base64.StdEncoding.EncodeToString(b)
		if it.Side == label.Front {
			resp.Front = enc
		} else {
			resp.Back = enc
		}
	}
	c.JSON(http.StatusOK, resp)
}

// labelSide renders the pair and returns one side as a PNG.
func (s *Server) labelSide(c *gin.Context) {
	side := label.Side(strings.TrimSuffix(c.Param("side"), ".png"))
	if side != label.Front && side != label.Back {
		c.JSON(http.StatusNotFound, gin.H{"error": "side must be front.png or back.png"})
		return
	}
	card, sink, err := s.render(c.Request.Context(), c.Param("query"))
	if err != nil {
		s.fail(c, err)
		return
	}
	img, ok := sink.Get(side)
	if !ok {
		s.fail(c, errors.New("canvas missing after render"))
		return
	}
	b, err := lookup.EncodePNG(img)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+card.Name+"-"+string(side)+`.png"`)
	c.Data(http.StatusOK, "image/png", b)
}

func (s *Server) render(ctx context.Context, query string) (*label.Card, *lookup.MemorySink, error) {
	sink := &lookup.MemorySink{}
	card, err := s.gen.Generate(ctx, lookup.NewStage(sink), query)
	if err != nil {
		return nil, nil, err
	}
	return card, sink, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps a render error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, lookup.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, dex.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, imagepkg.ErrImageLoad):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

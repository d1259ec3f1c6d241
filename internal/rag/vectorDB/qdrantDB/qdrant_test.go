package qdrantDB

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoad_ManifestErrors(t *testing.T) {
	// manifest problems are detected before qdrant is contacted
	p := NewPersister(nil, "pdfqa", "m")

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"missing", "", commonModels.ErrIndexNotFound},
		{"not json", "{{{", commonModels.ErrIndexCorrupt},
		{"no collection", `{"dimension": 3}`, commonModels.ErrIndexCorrupt},
		{"other model", `{"collection":"c","dimension":3,"embedding_model":"other"}`, commonModels.ErrIndexIncompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				if err := os.WriteFile(filepath.Join(dir, manifestFile), []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := p.Load(context.Background(), dir)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRemoteIndex_ValidatesBeforeQuery(t *testing.T) {
	r := &remoteIndex{manifest: manifest{Collection: "c", Dimension: 3, Count: 2}}

	if _, err := r.Search(context.Background(), []float32{1, 2, 3}, 0); !errors.Is(err, commonModels.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := r.Search(context.Background(), []float32{1, 2}, 1); !errors.Is(err, commonModels.ErrIndexIncompatible) {
		t.Errorf("expected ErrIndexIncompatible, got %v", err)
	}
	if r.Info().Backend != "qdrant" || r.Count() != 2 {
		t.Errorf("unexpected info %+v", r.Info())
	}
}

func TestToScored(t *testing.T) {
	points := []*qdrant.ScoredPoint{
		{
			Score: 0.9,
			Payload: qdrant.NewValueMap(map[string]any{
				"content":     "Refunds must be requested within 30 days.",
				"page_num":    4,
				"position":    7,
				"page_offset": 120,
			}),
		},
		{Score: 0.1, Payload: qdrant.NewValueMap(map[string]any{"content": "no page"})},
	}

	got := toScored(points)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	first := got[0].Chunk
	if first.PageNum != 4 || first.Position != 7 || first.PageOffset != 120 || first.Chunk != "Refunds must be requested within 30 days." {
		t.Errorf("unexpected chunk %+v", first)
	}
	if got[1].Chunk.PageLabel() != "N/A" {
		t.Errorf("missing page should be N/A, got %s", got[1].Chunk.PageLabel())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{status.Error(codes.NotFound, "collection missing"), commonModels.ErrIndexCorrupt},
		{status.Error(codes.InvalidArgument, "wrong vector size"), commonModels.ErrIndexIncompatible},
	}
	for _, tt := range tests {
		if got := classify(tt.err, "query"); !errors.Is(got, tt.want) {
			t.Errorf("classify(%v) = %v; want %v", tt.err, got, tt.want)
		}
	}

	unavailable := status.Error(codes.Unavailable, "connection refused")
	if got := classify(unavailable, "query"); !errors.Is(got, unavailable) {
		t.Errorf("unclassified errors should stay wrapped, got %v", got)
	}
}

package commonModels

import "errors"

var (
	ErrNoIndexLoaded     = errors.New("no document index loaded, please upload a PDF first")
	ErrEmbeddingService  = errors.New("embedding service error")
	ErrGenerationService = errors.New("generation service error")
	ErrIndexIncompatible = errors.New("index incompatible with embedding model")
	ErrIndexCorrupt      = errors.New("index corrupt")
	ErrIndexNotFound     = errors.New("index not found")
	ErrInvalidUpload     = errors.New("invalid upload")
	ErrInvalidArgument   = errors.New("invalid argument")
)

package core

import (
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     NeighborhoodKey
		wantErr error
	}{
		{
			name:    "valid key",
			key:     NeighborhoodKey{Neighborhood: "Williamsburg", Borough: "Brooklyn"},
			wantErr: nil,
		},
		{
			name:    "empty neighborhood",
			key:     NeighborhoodKey{Borough: "Brooklyn"},
			wantErr: ErrEmptyNeighborhood,
		},
		{
			name:    "whitespace neighborhood",
			key:     NeighborhoodKey{Neighborhood: "   ", Borough: "Brooklyn"},
			wantErr: ErrEmptyNeighborhood,
		},
		{
			name:    "empty borough",
			key:     NeighborhoodKey{Neighborhood: "Williamsburg"},
			wantErr: ErrEmptyBorough,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateKey() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ValidateKey() error should wrap ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *ChunkRecord
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &ChunkRecord{Id: 1, Position: 0, Text: "Bedford Avenue is the main drag."},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &ChunkRecord{Id: 1, Text: " \n"},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "negative position",
			chunk:   &ChunkRecord{Id: 1, Position: -1, Text: "x"},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
